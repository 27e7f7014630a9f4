package collecting

const (
	// BulkRefreshThreshold is the number of newly seen PIDs above which the
	// tracker refreshes them in one batch call.
	BulkRefreshThreshold = 40

	bytesPerMegaByte = 1024 * 1024
)
