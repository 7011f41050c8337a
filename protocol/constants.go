package protocol

// Frame sizes.
const (
	// StatusSize is the length of the ASCII status prefix on every response
	StatusSize = 4

	// DataLengthSize is the number of hex digits following a DATA status
	DataLengthSize = 8

	// ResponseSize is the length requested for every IN transfer.
	// Bootloaders never send more than 256 bytes in one response.
	ResponseSize = 256

	// MaxCommandLength is the longest command a bootloader is required to accept
	MaxCommandLength = 64

	// ChunkSize is the OUT transfer size used while streaming a download payload
	ChunkSize = 16384

	// MaxDownloadSize is the largest payload expressible in 8 hex digits
	MaxDownloadSize = 0xFFFFFFFF
)

// Command names used by the flashing workflow.
const (
	CmdGetVar                 = "getvar"
	CmdDownload               = "download"
	CmdFlash                  = "flash"
	CmdErase                  = "erase"
	CmdSetActive              = "set_active"
	CmdReboot                 = "reboot"
	CmdFlashing               = "flashing"
	CmdUpdateSuper            = "update-super"
	CmdResizeLogicalPartition = "resize-logical-partition"
)

// Well-known variables queried with getvar.
const (
	VarCurrentSlot     = "current-slot"
	VarMaxDownloadSize = "max-download-size"
	VarHasSlot         = "has-slot"
	VarIsLogical       = "is-logical"
	VarPartitionSize   = "partition-size"
	VarProduct         = "product"
	VarSerialNo        = "serialno"
)
