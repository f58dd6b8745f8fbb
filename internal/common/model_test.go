// File: internal/common/model_test.go
package common

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type widget struct {
	BaseModel
	Name string
}

func TestBaseModel_MigratesAndAssignsID(t *testing.T) {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// The schema carries no database-side UUID default, so it migrates on
	// any dialect; the create hook assigns IDs instead.
	require.NoError(t, db.AutoMigrate(&widget{}))

	first := widget{Name: "first"}
	second := widget{Name: "second"}
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&second).Error)

	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.NotEqual(t, uuid.Nil, second.ID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestBaseModel_KeepsPresetID(t *testing.T) {
	preset := uuid.New()
	m := BaseModel{ID: preset}
	require.NoError(t, m.BeforeCreate(nil))
	assert.Equal(t, preset, m.ID)
}
