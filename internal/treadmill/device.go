package treadmill

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"tinygo.org/x/bluetooth"

	"github.com/lowaak/interval-split/internal/go_func_utils"
)

// Device is the part of a connected BLE peripheral the controller needs
type Device interface {
	GetAddressString() string
	IsConnected() bool
	EnableNotifications(serviceUuid string, characteristicUuid string, callbackFunc func(buf []byte)) error
	WriteCharacteristic(serviceUuid string, characteristicUuid string, data []byte) error
	Disconnect() error
}

var ErrDeviceNotFound = errors.New("treadmill not found")

type btDevice struct {
	address              bluetooth.Address
	device               bluetooth.Device
	mu                   sync.Mutex
	bleMu                sync.Mutex // Serializes BLE characteristic operations (notifications, writes)
	connected            bool
	logger               *log.Logger
	serviceByUuid        map[string]*bluetooth.DeviceService
	characteristicByUuid map[string]*bluetooth.DeviceCharacteristic
}

var _ Device = (*btDevice)(nil)

// Connect enables adapter, scans for an FTMS peripheral with the given
// address and connects to it. ctx bounds the scan.
func Connect(ctx context.Context, adapter *bluetooth.Adapter, address string, logger *log.Logger) (Device, error) {
	if logger == nil {
		panic("Treadmill: logger cannot be nil")
	}
	if adapter == nil {
		panic("Treadmill: adapter cannot be nil")
	}

	d := &btDevice{
		logger:               logger,
		serviceByUuid:        make(map[string]*bluetooth.DeviceService),
		characteristicByUuid: make(map[string]*bluetooth.DeviceCharacteristic),
	}

	adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if device.Address.String() != address {
			return
		}
		if connected {
			logger.Printf("Treadmill: Device connected: %s", address)
		} else {
			logger.Printf("Treadmill: Device disconnected: %s", address)
		}
		d.setConnected(connected)
	})
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable bluetooth adapter: %w", err)
	}

	found, err := scanFor(ctx, adapter, address, logger)
	if err != nil {
		return nil, err
	}
	d.address = found

	logger.Printf("Treadmill: Connecting to %s", address)
	device, err := adapter.Connect(found, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", address, err)
	}
	d.device = device
	d.setConnected(true)
	return d, nil
}

// scanFor blocks until a device advertising FTMS with address is seen
func scanFor(ctx context.Context, adapter *bluetooth.Adapter, address string, logger *log.Logger) (bluetooth.Address, error) {
	ftms, err := bluetooth.ParseUUID(ServiceUUIDFTMS)
	if err != nil {
		return bluetooth.Address{}, err
	}

	foundChan := make(chan bluetooth.Address, 1)
	scanErr := make(chan error, 1)

	logger.Printf("Treadmill: Scanning for %s", address)
	go_func_utils.SafeGo(logger, "TreadmillScan", func() {
		scanErr <- adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if result.Address.String() != address || !result.HasServiceUUID(ftms) {
				return
			}
			select {
			case foundChan <- result.Address:
				logger.Printf("Treadmill: Found %s (%s) [RSSI: %d]", result.LocalName(), address, result.RSSI)
			default:
			}
			if err := adapter.StopScan(); err != nil {
				logger.Printf("Treadmill: Error stopping scan: %v", err)
			}
		})
	})

	select {
	case found := <-foundChan:
		return found, nil
	case err := <-scanErr:
		if err == nil {
			err = ErrDeviceNotFound
		}
		return bluetooth.Address{}, fmt.Errorf("scan for %s: %w", address, err)
	case <-ctx.Done():
		if err := adapter.StopScan(); err != nil {
			logger.Printf("Treadmill: Error stopping scan: %v", err)
		}
		return bluetooth.Address{}, fmt.Errorf("%w: %s: %w", ErrDeviceNotFound, address, ctx.Err())
	}
}

func (b *btDevice) GetAddressString() string {
	return b.address.String()
}

func (b *btDevice) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *btDevice) setConnected(connected bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = connected
}

func (b *btDevice) Disconnect() error {
	if !b.IsConnected() {
		return nil
	}
	return b.device.Disconnect()
}

func (b *btDevice) EnableNotifications(serviceUuidStr string, characteristicUuidStr string, callbackFunc func(buf []byte)) error {
	b.bleMu.Lock()
	defer b.bleMu.Unlock()

	characteristic, err := b.getDeviceCharacteristic(serviceUuidStr, characteristicUuidStr)
	if err != nil {
		return err
	}
	if err := characteristic.EnableNotifications(callbackFunc); err != nil {
		return fmt.Errorf("failed to enable notifications: %w", err)
	}
	b.logger.Printf("Treadmill: Notifications enabled for %s", characteristicUuidStr)
	return nil
}

func (b *btDevice) WriteCharacteristic(serviceUuidStr string, characteristicUuidStr string, data []byte) error {
	b.bleMu.Lock()
	defer b.bleMu.Unlock()

	characteristic, err := b.getDeviceCharacteristic(serviceUuidStr, characteristicUuidStr)
	if err != nil {
		return err
	}
	if _, err := characteristic.Write(data); err != nil {
		return fmt.Errorf("failed to write characteristic: %w", err)
	}
	return nil
}

// getDeviceService discovers every service on first use. Discovering single
// services repeatedly interrupts services already in use on some stacks.
func (b *btDevice) getDeviceService(serviceUuidStr string) (*bluetooth.DeviceService, error) {
	if service, ok := b.serviceByUuid[serviceUuidStr]; ok {
		return service, nil
	}
	if len(b.serviceByUuid) == 0 {
		services, err := b.device.DiscoverServices(nil)
		if err != nil {
			return nil, fmt.Errorf("error discovering services: %w", err)
		}
		for i := range services {
			svc := &services[i]
			b.serviceByUuid[svc.UUID().String()] = svc
		}
	}
	service, ok := b.serviceByUuid[serviceUuidStr]
	if !ok {
		return nil, fmt.Errorf("service %v not found on device", serviceUuidStr)
	}
	return service, nil
}

func (b *btDevice) getDeviceCharacteristic(serviceUuidStr string, characteristicUuidStr string) (*bluetooth.DeviceCharacteristic, error) {
	if !b.IsConnected() {
		return nil, errors.New("no connected device")
	}
	if _, err := bluetooth.ParseUUID(serviceUuidStr); err != nil {
		return nil, fmt.Errorf("invalid service UUID %q: %w", serviceUuidStr, err)
	}
	if _, err := bluetooth.ParseUUID(characteristicUuidStr); err != nil {
		return nil, fmt.Errorf("invalid characteristic UUID %q: %w", characteristicUuidStr, err)
	}

	key := serviceUuidStr + "_" + characteristicUuidStr
	if characteristic, ok := b.characteristicByUuid[key]; ok {
		return characteristic, nil
	}

	service, err := b.getDeviceService(serviceUuidStr)
	if err != nil {
		return nil, err
	}
	characteristics, err := service.DiscoverCharacteristics(nil)
	if err != nil {
		return nil, fmt.Errorf("could not discover characteristics for service %v: %w", serviceUuidStr, err)
	}
	for i := range characteristics {
		char := &characteristics[i]
		b.characteristicByUuid[serviceUuidStr+"_"+char.UUID().String()] = char
	}

	characteristic, ok := b.characteristicByUuid[key]
	if !ok {
		return nil, fmt.Errorf("characteristic %v not found in service %v", characteristicUuidStr, serviceUuidStr)
	}
	return characteristic, nil
}
