package symptom

import "math"

// ----------------------------------------------------------------------------
// String similarity
// ----------------------------------------------------------------------------

// SequenceRatio returns the Ratcliff/Obershelp similarity of a and b:
// 2*M / (len(a)+len(b)) where M is the number of characters in the matching
// blocks found by repeatedly taking the longest common substring and
// recursing on both sides.  Two empty strings have ratio 1.
func SequenceRatio(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingCharacters(ar, br)) / float64(total)
}

// quickRatioBound is an upper bound on SequenceRatio from lengths alone.
func quickRatioBound(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la+lb == 0 {
		return 1
	}
	return 2 * float64(min(la, lb)) / float64(la+lb)
}

// closeMatch reports whether word and candidate reach cutoff, skipping the
// full computation when the length bound already fails.
func closeMatch(word, candidate string, cutoff float64) (float64, bool) {
	if quickRatioBound(word, candidate) < cutoff {
		return 0, false
	}
	r := SequenceRatio(candidate, word)
	return r, r >= cutoff
}

func matchingCharacters(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(a), 0, len(b)}}
	total := 0
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		total += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return total
}

// longestMatch finds the longest block a[i:i+k] == b[j:j+k] inside the given
// window, preferring the earliest i and then the earliest j.
func longestMatch(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (int, int, int) {
	besti, bestj, bestk := alo, blo, 0
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return besti, bestj, bestk
}

// ----------------------------------------------------------------------------
// Vector similarity
// ----------------------------------------------------------------------------

// Cosine returns the cosine similarity of a and b.  Zero vectors and length
// mismatches yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
