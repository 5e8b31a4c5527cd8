package schema

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "date only", input: "2016,4,25", want: time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC)},
		{name: "with time", input: "2016,4,25,19,30", want: time.Date(2016, 4, 25, 19, 30, 0, 0, time.UTC)},
		{name: "with spaces", input: "2017, 1, 2, 3, 4, 5", want: time.Date(2017, 1, 2, 3, 4, 5, 0, time.UTC)},
		{name: "microseconds", input: "2017,1,2,3,4,5,250", want: time.Date(2017, 1, 2, 3, 4, 5, 250000, time.UTC)},
		{name: "too few tokens", input: "2016,4", wantErr: true},
		{name: "too many tokens", input: "1,2,3,4,5,6,7,8", wantErr: true},
		{name: "not an integer", input: "2016,April,25", wantErr: true},
		{name: "month out of range", input: "2016,13,1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedValue))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestIsDateField(t *testing.T) {
	assert.True(t, IsDateField("start_date"))
	assert.True(t, IsDateField("date"))
	assert.False(t, IsDateField("date_path"))
}

func TestKind_Coerce(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		input   any
		want    any
		wantErr bool
	}{
		{name: "int from string", kind: KindInt, input: "7", want: int64(7)},
		{name: "int from json float", kind: KindInt, input: float64(3), want: int64(3)},
		{name: "int from json number", kind: KindInt, input: json.Number("12"), want: int64(12)},
		{name: "int rejects fraction", kind: KindInt, input: 2.5, wantErr: true},
		{name: "float from int", kind: KindFloat, input: 2, want: float64(2)},
		{name: "float from string", kind: KindFloat, input: "0.5", want: 0.5},
		{name: "bool from string", kind: KindBool, input: "true", want: true},
		{name: "bool from 0", kind: KindBool, input: int64(0), want: false},
		{name: "string from number", kind: KindString, input: json.Number("570974"), want: "570974"},
		{name: "string from int", kind: KindString, input: 570974, want: "570974"},
		{name: "datetime from string", kind: KindDateTime, input: "2016,4,25", want: time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC)},
		{name: "datetime rejects int", kind: KindDateTime, input: 5, wantErr: true},
		{name: "nil passes", kind: KindInt, input: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.kind.Coerce(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrMalformedValue))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAsInt(t *testing.T) {
	n, ok := AsInt(float64(4))
	assert.True(t, ok)
	assert.Equal(t, int64(4), n)

	_, ok = AsInt("4")
	assert.False(t, ok)

	_, ok = AsInt(json.Number("4.5"))
	assert.False(t, ok)
}
