// Package flasher runs vendor flashing scripts against a fastboot device.
//
// A factory image is a zip holding flash-all.sh, the bootloader and radio
// images and a nested update zip. RunFlashAll extracts flash-all.sh, keeps its
// fastboot and sleep lines and executes them in order:
//
//	a, _ := archive.OpenFile("sargo-factory.zip")
//	f := flasher.New(client,
//	    flasher.WithLogger(logger),
//	    flasher.WithUpdateInstaller(manifest.New(client, logger)),
//	)
//	if err := f.RunFlashAll(ctx, a); err != nil {
//	    log.Fatal(err)
//	}
//
// The whole script is parsed before the first command is sent. Execution stops
// at the first error and nothing already written is rolled back.
//
// # Dispatch
//
//	flash <partition> <file>   image looked up by basename, --slot defaults to current
//	reboot-bootloader          optional --set-active=other|a|b first
//	update <zip> [-w]          nested zip with fastboot-info.txt, handed to the UpdateInstaller
//	flashing lock|unlock
//	getvar <name>              value is logged
//	erase <partition>
//	set_active <slot>
//	reboot [target]
//	sleep [seconds]            default 5 seconds
//	oem fb_mode_set|fb_mode_clear
//
// Anything else is an UnsupportedCommandError.
package flasher
