package ocr

import (
	"strings"
	"sync"

	"github.com/chewxy/math32"
	"github.com/ironsheep/captcha-tools-mcp/internal/engine"
	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
)

// MissingProbability marks a restriction token the charset does not contain.
const MissingProbability float32 = -1.0

// CharacterProbability holds per-position class probabilities.
//
// Probability[t][i] is the probability that position t is Charset[i]. Rows of
// an unrestricted result sum to 1; restricted rows are projections and may
// contain MissingProbability.
type CharacterProbability struct {
	Charset     []string    `json:"charset"`
	Probability [][]float32 `json:"probability"`

	once sync.Once
	text string
}

// Text returns the arg-max token of every position, concatenated. Ties go to
// the highest index. The result is computed once and cached.
func (p *CharacterProbability) Text() string {
	p.once.Do(func() {
		var sb strings.Builder
		for _, row := range p.Probability {
			best := -1
			for i, v := range row {
				if best < 0 || v >= row[best] {
					best = i
				}
			}
			if best >= 0 && best < len(p.Charset) {
				sb.WriteString(p.Charset[best])
			}
		}
		p.text = sb.String()
	})
	return p.text
}

// Decode turns a (T, 1, N) classification output into probabilities.
//
// Every value is exponentiated and divided by the sum over the whole output,
// then each position is divided by its own sum. With a non-empty restriction
// each row is projected onto the restriction's tokens.
func Decode(out engine.Tensor, cs *Charset, restriction Restriction) (*CharacterProbability, error) {
	if len(out.Shape) != 3 || out.Shape[1] != 1 {
		return nil, errs.Shape("classification output must be (T, 1, N), got %v", out.Shape)
	}
	if int(out.Shape[2]) != cs.Len() {
		return nil, errs.Shape("classification output has %d classes, charset has %d", out.Shape[2], cs.Len())
	}
	if err := out.Validate(); err != nil {
		return nil, errs.Shape("%v", err)
	}

	steps, classes := int(out.Shape[0]), int(out.Shape[2])
	exp := make([]float32, len(out.Data))
	var total float32
	for i, v := range out.Data {
		exp[i] = math32.Exp(v)
		total += exp[i]
	}
	for i := range exp {
		exp[i] /= total
	}

	rows := make([][]float32, steps)
	for t := 0; t < steps; t++ {
		row := exp[t*classes : (t+1)*classes : (t+1)*classes]
		var sum float32
		for _, v := range row {
			sum += v
		}
		for i := range row {
			row[i] /= sum
		}
		rows[t] = row
	}

	if len(restriction) == 0 {
		return &CharacterProbability{
			Charset:     append([]string(nil), cs.Charset...),
			Probability: rows,
		}, nil
	}

	indices := make([]int, len(restriction))
	for i, token := range restriction {
		indices[i] = cs.Index(token)
	}
	projected := make([][]float32, steps)
	for t, row := range rows {
		p := make([]float32, len(indices))
		for i, idx := range indices {
			if idx < 0 {
				p[i] = MissingProbability
			} else {
				p[i] = row[idx]
			}
		}
		projected[t] = p
	}
	return &CharacterProbability{
		Charset:     append([]string(nil), restriction...),
		Probability: projected,
	}, nil
}
