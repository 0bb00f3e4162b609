package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-import-service/internal/models"
)

func TestSettingsRoundTrip(t *testing.T) {
	saved := models.ImportSettings{
		Delimiter:       ";",
		Enclosure:       `"`,
		MaxLineLength:   2000,
		MaxRunSeconds:   90,
		DefaultImageID:  "7f9c24e5-1a2b-4c3d-8e9f-0a1b2c3d4e5f",
		ValidateHeaders: true,
	}

	pairs := settingsPairs(saved)
	require.Contains(t, pairs, "import.validate_headers")
	assert.Equal(t, "true", pairs["import.validate_headers"])

	var loaded models.ImportSettings
	for key, value := range pairs {
		applySettingRow(&loaded, models.Setting{Key: key, Value: value})
	}

	assert.Equal(t, saved, loaded, "every saved key must load back")
}

func TestApplySettingRowIgnoresBadNumbers(t *testing.T) {
	settings := models.ImportSettings{MaxLineLength: 1000}

	applySettingRow(&settings, models.Setting{Key: "import.max_line_length", Value: "not-a-number"})
	applySettingRow(&settings, models.Setting{Key: "import.validate_headers", Value: "yes"})

	assert.Equal(t, 1000, settings.MaxLineLength, "unparseable values keep the default")
	assert.False(t, settings.ValidateHeaders, "only the literal true enables the gate")
}
