package treadmill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommands(t *testing.T) {
	assert.Equal(t, []byte{0x00}, RequestControlCommand())
	assert.Equal(t, []byte{0x01}, ResetCommand())
	assert.Equal(t, []byte{0x07}, StartCommand())
	assert.Equal(t, []byte{0x08, 0x01}, StopCommand())
	assert.Equal(t, []byte{0x08, 0x02}, PauseCommand())
}

func TestSetTargetSpeedCommand(t *testing.T) {
	tests := []struct {
		name string
		kmh  float64
		want []byte
	}{
		{"12 km/h", 12, []byte{0x02, 0xB0, 0x04}},   // 1200
		{"8.5 km/h", 8.5, []byte{0x02, 0x52, 0x03}}, // 850
		{"rounds to 0.01", 10.004, []byte{0x02, 0xE8, 0x03}},
		{"zero", 0, []byte{0x02, 0x00, 0x00}},
		{"negative clamps", -3, []byte{0x02, 0x00, 0x00}},
		{"too fast clamps", 1000, []byte{0x02, 0xFF, 0xFF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SetTargetSpeedCommand(tt.kmh))
		})
	}
}

func TestParseResponse(t *testing.T) {
	resp, err := ParseResponse([]byte{0x80, 0x02, 0x01})
	require.NoError(t, err)
	assert.Equal(t, FTMSOpCodeSetTargetSpeed, resp.RequestOpCode)
	assert.True(t, resp.Success())
	assert.Equal(t, "Set Target Speed -> Success", resp.String())

	resp, err = ParseResponse([]byte{0x80, 0x00, 0x05, 0xAA})
	require.NoError(t, err)
	assert.False(t, resp.Success())
	assert.Equal(t, "Request Control -> Control Not Permitted", resp.String())

	_, err = ParseResponse([]byte{0x80, 0x00})
	assert.ErrorIs(t, err, ErrShortResponse)

	_, err = ParseResponse([]byte{0x07, 0x00, 0x01})
	assert.ErrorIs(t, err, ErrNotResponseCode)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "Stop/Pause", OpCodeName(FTMSOpCodeStopOrPause))
	assert.Equal(t, "OpCode 0x11", OpCodeName(0x11))
	assert.Equal(t, "Invalid Parameter", ResultName(FTMSResultInvalidParameter))
	assert.Equal(t, "Result 0x09", ResultName(0x09))
}
