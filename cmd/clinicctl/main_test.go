package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weekInput = `[
  {"id":"a1","date":"2024-03-13","start_time":"09:00","end_time":"10:30","type":"CONSULTATION"},
  {"id":"a2","date":"2024-03-14","start_time":"11:00","end_time":"10:00","type":"FOLLOW_UP"},
  {"id":"a3","date":"2024-03-20","start_time":"08:00","end_time":"09:00","type":"CHECKUP"}
]`

func TestWeekTable(t *testing.T) {
	var out bytes.Buffer
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

	err := runWeek(strings.NewReader(weekInput), &out, &weekOptions{date: "2024-03-13", file: "-"}, now)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Week 2024-03-10 .. 2024-03-16")
	assert.Regexp(t, `Wed 2024-03-13\s+a1\s+09:00\s+10:30\s+CONSULTATION\s+432\s+68`, text)
	assert.Regexp(t, `Thu 2024-03-14\s+a2\s+11:00\s+10:00\s+FOLLOW_UP\s+528\s+48!`, text)
	assert.NotContains(t, text, "a3")
	assert.NotContains(t, text, "now:")
}

func TestWeekJSON(t *testing.T) {
	var out bytes.Buffer
	now := time.Date(2024, 3, 12, 6, 0, 0, 0, time.UTC)

	err := runWeek(strings.NewReader(weekInput), &out, &weekOptions{file: "-", asJSON: true}, now)
	require.NoError(t, err)

	var week struct {
		Days []struct {
			Key     string            `json:"key"`
			Entries []json.RawMessage `json:"entries"`
		} `json:"days"`
		Indicator struct {
			Visible  bool    `json:"visible"`
			DayIndex int     `json:"day_index"`
			TopPx    float64 `json:"top_px"`
		} `json:"indicator"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &week))
	require.Len(t, week.Days, 7)
	assert.Equal(t, "2024-03-10", week.Days[0].Key)
	assert.Len(t, week.Days[3].Entries, 1)
	assert.True(t, week.Indicator.Visible)
	assert.Equal(t, 2, week.Indicator.DayIndex)
	assert.Equal(t, 288.0, week.Indicator.TopPx)
}

func TestWeekRejectsBadInput(t *testing.T) {
	now := time.Now()
	err := runWeek(strings.NewReader(weekInput), &bytes.Buffer{}, &weekOptions{date: "13/03/2024", file: "-"}, now)
	assert.Error(t, err)

	err = runWeek(strings.NewReader(`{"id":"a1"}`), &bytes.Buffer{}, &weekOptions{file: "-"}, now)
	assert.ErrorContains(t, err, "decode appointments")
}

func TestNavForPatient(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"nav", "--role", "patient"})

	require.NoError(t, root.Execute())

	text := out.String()
	assert.Contains(t, text, "- Dashboard (/dashboard)")
	assert.Contains(t, text, "    - Invoices (/finance/invoices)")
	assert.Contains(t, text, "- Prescriptions (/prescriptions)")
	assert.NotContains(t, text, "Payroll")
	assert.NotContains(t, text, "Administration")
}

func TestNavUnknownRole(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"nav", "--role", "janitor"})

	assert.ErrorContains(t, root.Execute(), `unknown role "JANITOR"`)
}
