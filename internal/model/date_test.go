package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate_AcceptedLayouts(t *testing.T) {
	t.Parallel()

	want := Date{Year: 2018, Month: time.March, Day: 7}
	for _, s := range []string{"2018.03.07", "2018-03-07", "2018/03/07", "  2018-03-07\t"} {
		got, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}
}

func TestParseDate_Rejects(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"07-03-2018", "2018.3.7", "2018-3-07", "20180307", "", "2018-02-30", "yesterday"} {
		_, err := ParseDate(s)
		require.Error(t, err, s)

		var fe *FormatError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, FormatDate, fe.Kind)
	}
}

func TestParseDate_ErrorMessage(t *testing.T) {
	t.Parallel()

	_, err := ParseDate(" 07-03-2018 ")
	require.Error(t, err)
	assert.Equal(t, "Invalid date format: 07-03-2018. Expected formats: yyyy.MM.dd, yyyy-MM-dd or yyyy/MM/dd", err.Error())
}

func TestDate_StringAndTime(t *testing.T) {
	t.Parallel()

	d := Date{Year: 2021, Month: time.January, Day: 5}
	assert.Equal(t, "2021-01-05", d.String())
	assert.Equal(t, time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC), d.Time())
}

func TestDate_JSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Date{Year: 2018, Month: time.March, Day: 7})
	require.NoError(t, err)
	assert.JSONEq(t, `"2018-03-07"`, string(b))
}
