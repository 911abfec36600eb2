package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateSymbol(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain symbol", input: "AAPL", want: "AAPL"},
		{name: "lowercase normalized", input: "msft", want: "MSFT"},
		{name: "surrounding whitespace", input: "  tsla ", want: "TSLA"},
		{name: "exchange suffix", input: "bmw.de", want: "BMW.DE"},
		{name: "single letter", input: "f", want: "F"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
		{name: "too long", input: "ABCDEF", wantErr: true},
		{name: "digits", input: "AAPL1", wantErr: true},
		{name: "suffix too long", input: "BMW.XETRA", wantErr: true},
		{name: "injection attempt", input: "AAPL;DROP", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateSymbol(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSymbol)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		input   string
		want    Interval
		wantErr bool
	}{
		{input: "1m", want: Interval1Min},
		{input: "5m", want: Interval5Min},
		{input: "15m", want: Interval15Min},
		{input: "1h", want: Interval1Hour},
		{input: "60m", want: Interval1Hour},
		{input: "4h", want: Interval4Hour},
		{input: "1d", want: Interval1Day},
		{input: "", want: Interval1Day},
		{input: "1w", want: Interval1Week},
		{input: "1wk", want: Interval1Week},
		{input: "1mo", want: Interval1Month},
		{input: "1D", want: Interval1Day},
		{input: "7d", wantErr: true},
		{input: "hourly", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("parse "+tt.input, func(t *testing.T) {
			got, err := ParseInterval(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInterval)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntervalHistoryTTL(t *testing.T) {
	assert.Equal(t, time.Hour, Interval5Min.HistoryTTL())
	assert.Equal(t, time.Hour, Interval4Hour.HistoryTTL())
	assert.Equal(t, 24*time.Hour, Interval1Day.HistoryTTL())
	assert.Equal(t, 24*time.Hour, Interval1Month.HistoryTTL())
}
