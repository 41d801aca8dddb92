package utils

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDateRange(t *testing.T) {
	begin := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 3, 5, 0, 0, 0, 0, time.UTC)

	dates := DateRange(begin, end)
	require.Len(t, dates, 5)
	assert.Equal(t, begin, dates[0])
	assert.Equal(t, end, dates[4])

	assert.Nil(t, DateRange(end, begin))
	assert.Equal(t, 4, DayCntBetween(end, begin))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, 1.235, FormatFloat(1.23456, 3))
	assert.Equal(t, 1.2, FormatFloat(1.23456, 1))
	assert.True(t, math.IsNaN(FormatFloat(math.NaN(), 3)))
}

func TestGetLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	GetLogger(ctx).Info("hello")
	assert.Equal(t, 1, logs.Len())

	assert.Equal(t, zap.L(), GetLogger(context.Background()))
}
