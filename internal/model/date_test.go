package model

import (
    "encoding/json"
    "testing"
    "time"

    "github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
    var d Date
    require.NoError(t, json.Unmarshal([]byte(`"2025-03-09"`), &d))
    require.Equal(t, NewDate(2025, time.March, 9), d)

    out, err := json.Marshal(d)
    require.NoError(t, err)
    require.JSONEq(t, `"2025-03-09"`, string(out))

    require.NoError(t, json.Unmarshal([]byte(`"2025-03-09T15:04:05Z"`), &d))
    require.Equal(t, "2025-03-09", d.String())

    require.Error(t, json.Unmarshal([]byte(`"09/03/2025"`), &d))
}

func TestDate_Scan(t *testing.T) {
    var d Date
    require.NoError(t, d.Scan(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
    require.Equal(t, "2025-06-01", d.String())

    require.NoError(t, d.Scan("2025-06-02"))
    require.Equal(t, "2025-06-02", d.String())

    require.NoError(t, d.Scan([]byte("2025-06-03T00:00:00Z")))
    require.Equal(t, "2025-06-03", d.String())

    require.Error(t, d.Scan(42))

    v, err := NewDate(2025, time.June, 4).Value()
    require.NoError(t, err)
    require.Equal(t, "2025-06-04", v)
}
