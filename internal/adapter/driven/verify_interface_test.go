package driven

import (
	port "github.com/alorle/iptv-selector/internal/port/driven"
)

// Compile-time checks that the adapters implement their ports
var (
	_ port.ProbeRepository     = (*ProbeBoltDBRepository)(nil)
	_ port.StreamProber        = (*StreamHTTPProber)(nil)
	_ port.ReachabilityChecker = (*SocketChecker)(nil)
	_ port.TimedDownloader     = (*TimedDownloader)(nil)
	_ port.CandidateDiscoverer = (*CandidateListSource)(nil)
	_ port.PlaylistWriter      = (*PlaylistFileWriter)(nil)
)
