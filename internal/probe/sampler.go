package probe

// Sampler is an io.Writer that counts every byte written to it and keeps
// only the first PacketSize bytes for stream recognition.
// A Sampler belongs to exactly one probe and must not be reused.
type Sampler struct {
	head []byte
	n    int64
}

// NewSampler returns an empty Sampler.
func NewSampler() *Sampler {
	return &Sampler{head: make([]byte, 0, PacketSize)}
}

// Write never fails.
func (s *Sampler) Write(p []byte) (int, error) {
	if room := PacketSize - len(s.head); room > 0 {
		if room > len(p) {
			room = len(p)
		}
		s.head = append(s.head, p[:room]...)
	}
	s.n += int64(len(p))
	return len(p), nil
}

// Head returns the retained leading bytes.
func (s *Sampler) Head() []byte { return s.head }

// Count returns the total number of bytes written.
func (s *Sampler) Count() int64 { return s.n }
