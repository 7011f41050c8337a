// Package fastboottest provides a simulated fastboot bootloader for tests and
// demos.
//
// A Bootloader keeps variables, partition contents and lock state in memory and
// answers commands the way a real device does. Host exposes one or more
// simulated bootloaders through the transport.Host interface, including
// re-enumeration after reboot-bootloader, set_active and flashing lock/unlock:
// handles from before the reset stop working and a fresh handle appears on the
// next enumeration.
//
//	bl := fastboottest.New("SIM0001")
//	host := fastboottest.NewHost(bl)
//
//	b := transport.New(host)
//	_ = b.Bind(bl.Handle())
//	client := fastboot.New(b)
package fastboottest
