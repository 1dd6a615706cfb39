package score

// LCSLength returns the length of the longest common subsequence of a and b.
func LCSLength[T comparable](a, b []T) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// LCSRatio is LCSLength(got, want) / len(want). An empty reference gives 1
// when got is empty too, 0 otherwise.
func LCSRatio[T comparable](got, want []T) float64 {
	if len(want) == 0 {
		if len(got) == 0 {
			return 1
		}
		return 0
	}
	return float64(LCSLength(got, want)) / float64(len(want))
}

// Pitches returns the scientific pitch names of notes.
func Pitches(notes []NoteEvent) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Pitch()
	}
	return out
}

// MIDIKeys returns the MIDI numbers of notes, skipping unencodable ones.
func MIDIKeys(notes []NoteEvent) []int {
	out := make([]int, 0, len(notes))
	for _, n := range notes {
		if k, err := n.MIDI(); err == nil {
			out = append(out, k)
		}
	}
	return out
}
