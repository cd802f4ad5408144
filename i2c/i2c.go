package i2c

import (
	"fmt"
	"log"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// I2C is one slave address on a /dev/i2c-N bus, or a logged stand-in for one
type I2C struct {
	fd      *os.File
	bus     int
	address uint8
	sim     bool
	mu      sync.Mutex
	// Written keeps every buffer sent in simulated mode
	Written [][]byte
}

const (
	I2C_SLAVE = 0x0703
)

func logWrite(address uint8, buf []byte) {
	line := fmt.Sprintf("i2c 0x%02x write:", address)
	for i := 0; i < len(buf); i++ {
		line += fmt.Sprintf(" %02x", buf[i])
	}
	log.Println(line)
}

// Open a connection to the i2c device
func Open(address uint8, bus int, simulated bool) (*I2C, error) {
	if simulated {
		return &I2C{sim: true, bus: bus, address: address}, nil
	}
	f, err := os.OpenFile(fmt.Sprintf("/dev/i2c-%d", bus), os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}
	if err := unix.IoctlSetInt(int(f.Fd()), I2C_SLAVE, int(address)); err != nil {
		f.Close()
		return nil, err
	}
	return &I2C{fd: f, bus: bus, address: address}, nil
}

func (d *I2C) Bus() int {
	return d.bus
}

func (d *I2C) Address() uint8 {
	return d.address
}

func (d *I2C) Close() error {
	if d.sim {
		log.Printf("i2c 0x%02x close", d.address)
		return nil
	}
	return d.fd.Close()
}

// WriteByte sends a command-style byte
func (d *I2C) WriteByte(c byte) error {
	_, err := d.Write([]byte{c})
	return err
}

func (d *I2C) Write(buf []byte) (int, error) {
	// the slave address is per fd, select it again in case someone else moved it
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sim {
		logWrite(d.address, buf)
		d.Written = append(d.Written, append([]byte(nil), buf...))
		return len(buf), nil
	}
	if err := unix.IoctlSetInt(int(d.fd.Fd()), I2C_SLAVE, int(d.address)); err != nil {
		return 0, err
	}
	return d.fd.Write(buf)
}
