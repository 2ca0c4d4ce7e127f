package main

// Message constants
const (
	MsgRootShort = "Back up Windows user profiles and list installed software"
	MsgRootLong  = `winbackup copies the personal directories of selected user profiles into a
timestamped backup directory and records the installed software.

Documents, Desktop, Downloads, Pictures and Videos are always copied when
present. Every other profile directory is shown as a short tree and copied
only when you answer yes. Junctions and .lnk shortcuts are never copied.`

	MsgFlagVerbose      = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun       = "Show what would be copied without writing anything"
	MsgFlagConfig       = "Config file (default $XDG_CONFIG_HOME/winbackup/config.toml)"
	MsgFlagFormat       = "Output format: auto, term or text"
	MsgFlagBaseDir      = "Directory the backup is created in"
	MsgFlagProfilesRoot = "Directory holding the user profiles"
	MsgFlagNoElevate    = "Do not request administrative rights"
	MsgFlagDepth        = "Levels below the directory to expand"

	MsgVersionShort  = "Print version information"
	MsgPreviewShort  = "Print the tree preview of a directory"
	MsgSoftwareShort = "List installed software from the registry"
	MsgPackagesShort = "List packages installed with the package manager"
	MsgManifestShort = "Summarise an earlier backup from its manifest"

	MsgFailed          = "Error: %v"
	MsgExitPause       = "Press Enter to exit..."
	MsgCompletePause   = "Backup process complete."
	MsgRelaunched      = "Admin privileges required - requested elevation in a new window."
	MsgNotInstalled    = "%s is not installed"
	MsgUnreadableCount = "%d catalog entries could not be read"
)
