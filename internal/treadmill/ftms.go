// Package treadmill drives an FTMS treadmill from interval run events.
package treadmill

import (
	"errors"
	"fmt"
	"math"
)

// Fitness Machine Service UUIDs
const (
	ServiceUUIDFTMS          = "00001826-0000-1000-8000-00805f9b34fb"
	CharUUIDFTMSControlPoint = "00002ad9-0000-1000-8000-00805f9b34fb"
)

// FTMS Control Point Op Codes (Fitness Machine Service 1.0 spec)
// See: https://www.bluetooth.com/specifications/specs/fitness-machine-service-1-0/
const (
	FTMSOpCodeRequestControl byte = 0x00
	FTMSOpCodeReset          byte = 0x01
	FTMSOpCodeSetTargetSpeed byte = 0x02
	FTMSOpCodeStartOrResume  byte = 0x07
	FTMSOpCodeStopOrPause    byte = 0x08
	FTMSOpCodeResponseCode   byte = 0x80
)

// Stop or Pause parameter values
const (
	FTMSStopParam  byte = 0x01
	FTMSPauseParam byte = 0x02
)

// FTMS Control Point Result Codes
const (
	FTMSResultSuccess             byte = 0x01
	FTMSResultOpCodeNotSupported  byte = 0x02
	FTMSResultInvalidParameter    byte = 0x03
	FTMSResultOperationFailed     byte = 0x04
	FTMSResultControlNotPermitted byte = 0x05
)

// MaxTargetSpeedKmh is the largest speed a uint16 in 0.01 km/h can carry
const MaxTargetSpeedKmh = math.MaxUint16 / 100.0

var (
	ErrShortResponse   = errors.New("control point response too short")
	ErrNotResponseCode = errors.New("not a control point response")
)

func RequestControlCommand() []byte {
	return []byte{FTMSOpCodeRequestControl}
}

func ResetCommand() []byte {
	return []byte{FTMSOpCodeReset}
}

func StartCommand() []byte {
	return []byte{FTMSOpCodeStartOrResume}
}

func StopCommand() []byte {
	return []byte{FTMSOpCodeStopOrPause, FTMSStopParam}
}

func PauseCommand() []byte {
	return []byte{FTMSOpCodeStopOrPause, FTMSPauseParam}
}

// SetTargetSpeedCommand encodes [0x02, speed_low, speed_high] where speed is
// a UINT16 in 0.01 km/h. Out of range values are clamped.
func SetTargetSpeedCommand(kmh float64) []byte {
	if kmh < 0 || math.IsNaN(kmh) {
		kmh = 0
	}
	if kmh > MaxTargetSpeedKmh {
		kmh = MaxTargetSpeedKmh
	}
	speed := uint16(math.Round(kmh * 100))
	return []byte{
		FTMSOpCodeSetTargetSpeed,
		byte(speed & 0xFF),
		byte(speed >> 8),
	}
}

// Response is a decoded control point indication
type Response struct {
	RequestOpCode byte
	Result        byte
}

// ParseResponse decodes [0x80, RequestOpCode, ResultCode, ...]
func ParseResponse(buf []byte) (Response, error) {
	if len(buf) < 3 {
		return Response{}, fmt.Errorf("%w: %v", ErrShortResponse, buf)
	}
	if buf[0] != FTMSOpCodeResponseCode {
		return Response{}, fmt.Errorf("%w: op code 0x%02X", ErrNotResponseCode, buf[0])
	}
	return Response{RequestOpCode: buf[1], Result: buf[2]}, nil
}

func (r Response) Success() bool {
	return r.Result == FTMSResultSuccess
}

func (r Response) String() string {
	return fmt.Sprintf("%s -> %s", OpCodeName(r.RequestOpCode), ResultName(r.Result))
}

func OpCodeName(opCode byte) string {
	switch opCode {
	case FTMSOpCodeRequestControl:
		return "Request Control"
	case FTMSOpCodeReset:
		return "Reset"
	case FTMSOpCodeSetTargetSpeed:
		return "Set Target Speed"
	case FTMSOpCodeStartOrResume:
		return "Start/Resume"
	case FTMSOpCodeStopOrPause:
		return "Stop/Pause"
	default:
		return fmt.Sprintf("OpCode 0x%02X", opCode)
	}
}

func ResultName(code byte) string {
	switch code {
	case FTMSResultSuccess:
		return "Success"
	case FTMSResultOpCodeNotSupported:
		return "Op Code Not Supported"
	case FTMSResultInvalidParameter:
		return "Invalid Parameter"
	case FTMSResultOperationFailed:
		return "Operation Failed"
	case FTMSResultControlNotPermitted:
		return "Control Not Permitted"
	default:
		return fmt.Sprintf("Result 0x%02X", code)
	}
}
