package homematic

import (
	"fmt"
	"strconv"
	"strings"
)

// ChannelAddress builds the address of channel no of a device.
func ChannelAddress(deviceAddress string, no int) string {
	return fmt.Sprintf("%s:%d", deviceAddress, no)
}

// DeviceAddress strips the channel part of an address.
func DeviceAddress(address string) string {
	if i := strings.IndexByte(address, ':'); i >= 0 {
		return address[:i]
	}
	return address
}

// ChannelNo returns the channel number of a channel address.
func ChannelNo(address string) (int, bool) {
	i := strings.IndexByte(address, ':')
	if i < 0 {
		return 0, false
	}
	no, err := strconv.Atoi(address[i+1:])
	if err != nil {
		return 0, false
	}
	return no, true
}

// IsChannelAddress reports whether address names a channel.
func IsChannelAddress(address string) bool {
	return strings.Contains(address, ":")
}
