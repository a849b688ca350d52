package config

import (
	"net/url"
	"testing"
	"time"

	"github.com/entrhq/surf/pkg/browsing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowsingSection(t *testing.T) {
	s := NewBrowsingSection()
	require.NoError(t, s.Validate())
	assert.Equal(t, browsing.DefaultStartPage, s.StartPage)

	mode, err := s.ContentMode()
	require.NoError(t, err)
	assert.Equal(t, browsing.ContentModeRecommended, mode)

	filter, err := s.HistoryFilter()
	require.NoError(t, err)
	assert.True(t, filter.Match(&url.URL{Scheme: "about", Opaque: "blank"}))

	require.NoError(t, s.SetData(map[string]interface{}{
		"default_content_mode": "desktop",
		"restore_last_url":     true,
		"history_exclude":      []string{"bank.test"},
		"unknown":              42,
	}))
	mode, err = s.ContentMode()
	require.NoError(t, err)
	assert.Equal(t, browsing.ContentModeDesktop, mode)
	assert.True(t, s.ShouldRestoreLastURL())

	opts, err := s.SessionOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 4)

	data := s.Data()
	assert.Equal(t, []interface{}{"bank.test"}, data["history_exclude"])

	s.Reset()
	assert.False(t, s.RestoreLastURL)
	assert.Equal(t, defaultHistoryExclude, s.HistoryExclude)
}

func TestBrowsingSectionInvalid(t *testing.T) {
	tests := []struct {
		name string
		data map[string]interface{}
		set  bool
	}{
		{"start page type", map[string]interface{}{"start_page": 1}, true},
		{"restore type", map[string]interface{}{"restore_last_url": "yes"}, true},
		{"exclude entries", map[string]interface{}{"history_exclude": []interface{}{1}}, true},
		{"exclude type", map[string]interface{}{"history_exclude": "about:*"}, true},
		{"content mode type", map[string]interface{}{"default_content_mode": 2}, true},
		{"empty start page", map[string]interface{}{"start_page": ""}, false},
		{"unknown content mode", map[string]interface{}{"default_content_mode": "tablet"}, false},
		{"bad pattern", map[string]interface{}{"history_exclude": []interface{}{"[x"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewBrowsingSection()
			err := s.SetData(tt.data)
			if tt.set {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Error(t, s.Validate())
		})
	}
}

func TestEngineSection(t *testing.T) {
	s := NewEngineSection()
	require.NoError(t, s.Validate())
	assert.Equal(t, 2*time.Second, s.Settings().PolicyDeadline)

	require.NoError(t, s.SetData(map[string]interface{}{
		"viewport_width":     float64(1440),
		"policy_deadline":    "500ms",
		"navigation_timeout": float64(10 * time.Second),
		"headless":           false,
	}))
	st := s.Settings()
	assert.Equal(t, 1440, st.ViewportWidth)
	assert.Equal(t, 500*time.Millisecond, st.PolicyDeadline)
	assert.Equal(t, 10*time.Second, st.NavigationTimeout)
	assert.False(t, st.Headless)

	data := s.Data()
	assert.Equal(t, "500ms", data["policy_deadline"])

	assert.Error(t, s.SetData(map[string]interface{}{"viewport_width": "wide"}))
	assert.Error(t, s.SetData(map[string]interface{}{"policy_deadline": "soon"}))
	assert.Equal(t, 1440, s.Settings().ViewportWidth, "failed SetData leaves settings untouched")

	require.NoError(t, s.SetData(map[string]interface{}{"viewport_height": 10}))
	assert.Error(t, s.Validate())

	s.Reset()
	require.NoError(t, s.SetData(map[string]interface{}{"policy_deadline": "1ms"}))
	assert.Error(t, s.Validate())
}

func TestUISection(t *testing.T) {
	s := NewUISection()
	require.NoError(t, s.Validate())
	assert.Equal(t, defaultToastDuration, s.GetToastDuration())
	assert.True(t, s.GetShowTabNumbers())

	require.NoError(t, s.SetData(map[string]interface{}{
		"toast_duration":   "2s",
		"show_tab_numbers": false,
		"history_limit":    float64(50),
	}))
	assert.Equal(t, 2*time.Second, s.GetToastDuration())
	assert.False(t, s.GetShowTabNumbers())
	assert.Equal(t, 50, s.GetHistoryLimit())

	assert.Error(t, s.SetData(map[string]interface{}{"show_tab_numbers": "no"}))

	require.NoError(t, s.SetData(map[string]interface{}{"toast_duration": "1ms"}))
	assert.Error(t, s.Validate())

	s.Reset()
	assert.Equal(t, defaultHistoryLimit, s.GetHistoryLimit())
}
