package chat

import "bytes"

// frameScanner assembles newline-delimited event frames out of arbitrary
// byte chunks. Network reads split frames at arbitrary points, so a chunk
// may close zero or more frames and leave a partial line behind for the
// next feed.
type frameScanner struct {
	partial []byte
}

// Feed consumes one chunk and returns every frame it completed, in order.
func (s *frameScanner) Feed(chunk []byte) []string {
	s.partial = append(s.partial, chunk...)

	var frames []string

	for {
		i := bytes.IndexByte(s.partial, '\n')
		if i < 0 {
			return frames
		}

		line := s.partial[:i]
		s.partial = s.partial[i+1:]

		frames = append(frames, string(bytes.TrimSuffix(line, []byte("\r"))))
	}
}

// Rest returns whatever is buffered after the final chunk; a stream that
// ends without a trailing newline still carries one last frame.
func (s *frameScanner) Rest() string {
	rest := string(bytes.TrimSuffix(s.partial, []byte("\r")))
	s.partial = nil

	return rest
}
