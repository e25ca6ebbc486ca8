package fs

import (
	"fmt"

	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/inode"
)

// Driver types, stored as the major number of a device node.
const (
	DriverUART      uint8 = 0
	DriverSPI       uint8 = 1
	DriverI2C       uint8 = 2
	DriverCAN       uint8 = 3
	DriverTimer     uint8 = 4
	DriverADC       uint8 = 5
	DriverPWM       uint8 = 6
	DriverDAC       uint8 = 7
	DriverHDD       uint8 = 8
	DriverSSD       uint8 = 9
	DriverEthernet  uint8 = 10
	DriverWifi      uint8 = 11
	DriverBluetooth uint8 = 12
)

var driverNames = []string{
	DriverUART:      "uart",
	DriverSPI:       "spi",
	DriverI2C:       "i2c",
	DriverCAN:       "can",
	DriverTimer:     "timer",
	DriverADC:       "adc",
	DriverPWM:       "pwm",
	DriverDAC:       "dac",
	DriverHDD:       "hdd",
	DriverSSD:       "ssd",
	DriverEthernet:  "eth",
	DriverWifi:      "wifi",
	DriverBluetooth: "bluetooth",
}

// DriverName is the device file prefix of driver major ("uart", "spi", ...).
func DriverName(major uint8) string {
	if int(major) < len(driverNames) {
		return driverNames[major]
	}
	return fmt.Sprintf("drv%d", major)
}

// ParseDriver is the inverse of DriverName for the known drivers.
func ParseDriver(name string) (uint8, error) {
	for major, n := range driverNames {
		if n == name {
			return uint8(major), nil
		}
	}
	return 0, fmt.Errorf("parsing driver `%s`: %w", name, common.ErrNoDriver)
}

// DeviceName is the conventional /dev entry for a device: the driver name
// followed by the device number, e.g. "uart0".
func DeviceName(major uint8, minor uint8) string {
	return fmt.Sprintf("%s%d", DriverName(major), minor)
}

// OpenHook is called with the device number whenever a device node of its
// driver is opened. An error fails the open.
type OpenHook func(minor uint8) error

func (fsys *FS) RegisterDriver(major uint8, hook OpenHook) error {
	if major > common.MAXMAJOR {
		return fmt.Errorf("registering driver `%d`: %w", major,
			common.ErrInvalidDevice)
	}
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	fsys.drivers[major] = hook
	return nil
}

func (fsys *FS) openDevice(ip *inode.Inode) error {
	major := common.Major(ip.MajorMinor)
	hook, ok := fsys.drivers[major]
	if !ok || hook == nil {
		return fmt.Errorf("device %s: %w",
			DeviceName(major, common.Minor(ip.MajorMinor)), common.ErrNoDriver)
	}
	if err := hook(common.Minor(ip.MajorMinor)); err != nil {
		return fmt.Errorf("device %s: %w",
			DeviceName(major, common.Minor(ip.MajorMinor)), err)
	}
	return nil
}
