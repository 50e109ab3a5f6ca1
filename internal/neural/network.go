// Package neural implements the real-time ranking network: a feed-forward
// scorer trained with pairwise ranking loss, supporting full retraining,
// incremental updates that preserve optimizer state, and single-sample
// online corrections.
package neural

import (
	"math"
	"math/rand"

	"github.com/rankforge/rankforge/internal/pkg/errors"
)

const (
	bnEpsilon   = 1e-5
	bnMomentum  = 0.99
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

// LayerState is the serializable form of one hidden layer, including the
// batch-norm statistics accumulated during training.
type LayerState struct {
	W       []float64 `json:"w"` // row-major [in][out]
	B       []float64 `json:"b"`
	Gamma   []float64 `json:"gamma"`
	Beta    []float64 `json:"beta"`
	RunMean []float64 `json:"run_mean"`
	RunVar  []float64 `json:"run_var"`
	In      int       `json:"in"`
	Out     int       `json:"out"`
}

// NetworkState is the full serializable network: weights plus Adam moments,
// so a restored network resumes optimization exactly where it stopped.
type NetworkState struct {
	InputDim int           `json:"input_dim"`
	Hidden   []int         `json:"hidden"`
	Dropout  float64       `json:"dropout"`
	Layers   []*LayerState `json:"layers"`
	OutW     []float64     `json:"out_w"`
	OutB     float64       `json:"out_b"`
	AdamM    [][]float64   `json:"adam_m"`
	AdamV    [][]float64   `json:"adam_v"`
	AdamStep int           `json:"adam_step"`
}

type layer struct {
	w       []float64
	b       []float64
	gamma   []float64
	beta    []float64
	runMean []float64
	runVar  []float64
	in, out int
}

// Network is a feed-forward scorer: dense -> batch norm -> ReLU -> dropout
// per hidden layer, then a single linear output unit.
type Network struct {
	inputDim int
	hidden   []int
	dropout  float64
	layers   []*layer
	outW     []float64
	outB     float64

	// Adam moments, ordered: per layer (w, b, gamma, beta), then (outW, outB).
	adamM    [][]float64
	adamV    [][]float64
	adamStep int

	rng *rand.Rand
}

// NewNetwork initializes a network with He-scaled random weights.
func NewNetwork(inputDim int, hidden []int, dropout float64, seed int64) (*Network, error) {
	if inputDim <= 0 {
		return nil, errors.Newf(errors.CodeValidation, "input dimension must be positive, got %d", inputDim)
	}
	if len(hidden) == 0 {
		return nil, errors.ValidationError("at least one hidden layer required")
	}
	n := &Network{
		inputDim: inputDim,
		hidden:   hidden,
		dropout:  dropout,
		rng:      rand.New(rand.NewSource(seed)),
	}
	in := inputDim
	for _, width := range hidden {
		l := &layer{
			w:       make([]float64, in*width),
			b:       make([]float64, width),
			gamma:   make([]float64, width),
			beta:    make([]float64, width),
			runMean: make([]float64, width),
			runVar:  make([]float64, width),
			in:      in,
			out:     width,
		}
		scale := math.Sqrt(2.0 / float64(in))
		for i := range l.w {
			l.w[i] = n.rng.NormFloat64() * scale
		}
		for i := range l.gamma {
			l.gamma[i] = 1
			l.runVar[i] = 1
		}
		n.layers = append(n.layers, l)
		in = width
	}
	n.outW = make([]float64, in)
	scale := math.Sqrt(2.0 / float64(in))
	for i := range n.outW {
		n.outW[i] = n.rng.NormFloat64() * scale
	}
	n.initAdam()
	return n, nil
}

func (n *Network) initAdam() {
	n.adamM = n.adamM[:0]
	n.adamV = n.adamV[:0]
	for _, l := range n.layers {
		for _, p := range [][]float64{l.w, l.b, l.gamma, l.beta} {
			n.adamM = append(n.adamM, make([]float64, len(p)))
			n.adamV = append(n.adamV, make([]float64, len(p)))
		}
	}
	n.adamM = append(n.adamM, make([]float64, len(n.outW)), make([]float64, 1))
	n.adamV = append(n.adamV, make([]float64, len(n.outW)), make([]float64, 1))
	n.adamStep = 0
}

// InputDim returns the expected feature vector length.
func (n *Network) InputDim() int { return n.inputDim }

// forwardCache holds per-batch intermediates needed by backward.
type forwardCache struct {
	inputs   [][][]float64 // layer inputs, [layer][sample][dim]
	preNorm  [][][]float64 // dense outputs before batch norm
	normed   [][][]float64 // normalized activations (x-hat)
	batchMu  [][]float64
	batchVar [][]float64
	masks    [][][]float64 // dropout masks (nil in inference)
	final    [][]float64   // input to the output unit
}

// forward runs the batch through the network. In training mode batch norm
// uses batch statistics and dropout is active; in inference mode running
// statistics are used and dropout is disabled. A training batch of one
// sample falls back to running statistics since batch variance degenerates.
func (n *Network) forward(x [][]float64, training bool) ([]float64, *forwardCache) {
	batch := len(x)
	useBatchStats := training && batch > 1
	cache := &forwardCache{}

	cur := x
	for _, l := range n.layers {
		cache.inputs = append(cache.inputs, cur)

		pre := make([][]float64, batch)
		for s := range cur {
			pre[s] = make([]float64, l.out)
			for j := 0; j < l.out; j++ {
				sum := l.b[j]
				for i := 0; i < l.in; i++ {
					sum += cur[s][i] * l.w[i*l.out+j]
				}
				pre[s][j] = sum
			}
		}
		cache.preNorm = append(cache.preNorm, pre)

		mu := make([]float64, l.out)
		variance := make([]float64, l.out)
		if useBatchStats {
			for j := 0; j < l.out; j++ {
				for s := 0; s < batch; s++ {
					mu[j] += pre[s][j]
				}
				mu[j] /= float64(batch)
				for s := 0; s < batch; s++ {
					d := pre[s][j] - mu[j]
					variance[j] += d * d
				}
				variance[j] /= float64(batch)
			}
			for j := 0; j < l.out; j++ {
				l.runMean[j] = bnMomentum*l.runMean[j] + (1-bnMomentum)*mu[j]
				l.runVar[j] = bnMomentum*l.runVar[j] + (1-bnMomentum)*variance[j]
			}
		} else {
			copy(mu, l.runMean)
			copy(variance, l.runVar)
		}
		cache.batchMu = append(cache.batchMu, mu)
		cache.batchVar = append(cache.batchVar, variance)

		normed := make([][]float64, batch)
		act := make([][]float64, batch)
		var mask [][]float64
		if training && n.dropout > 0 {
			mask = make([][]float64, batch)
		}
		for s := 0; s < batch; s++ {
			normed[s] = make([]float64, l.out)
			act[s] = make([]float64, l.out)
			if mask != nil {
				mask[s] = make([]float64, l.out)
			}
			for j := 0; j < l.out; j++ {
				xh := (pre[s][j] - mu[j]) / math.Sqrt(variance[j]+bnEpsilon)
				normed[s][j] = xh
				v := l.gamma[j]*xh + l.beta[j]
				if v < 0 { // ReLU
					v = 0
				}
				if mask != nil {
					if n.rng.Float64() < n.dropout {
						mask[s][j] = 0
						v = 0
					} else {
						mask[s][j] = 1 / (1 - n.dropout)
						v *= mask[s][j]
					}
				}
				act[s][j] = v
			}
		}
		cache.normed = append(cache.normed, normed)
		cache.masks = append(cache.masks, mask)
		cur = act
	}

	cache.final = cur
	scores := make([]float64, batch)
	for s := range cur {
		sum := n.outB
		for i, w := range n.outW {
			sum += cur[s][i] * w
		}
		scores[s] = sum
	}
	return scores, cache
}

// Predict scores feature rows in inference mode.
func (n *Network) Predict(x [][]float64) []float64 {
	scores, _ := n.forward(x, false)
	return scores
}

// backward propagates output gradients through the network and applies one
// Adam step with the given learning rate.
func (n *Network) backward(cache *forwardCache, outGrad []float64, lr float64) {
	batch := len(outGrad)
	inv := 1.0 / float64(batch)

	gOutW := make([]float64, len(n.outW))
	gOutB := 0.0
	delta := make([][]float64, batch)
	for s := 0; s < batch; s++ {
		gOutB += outGrad[s] * inv
		delta[s] = make([]float64, len(n.outW))
		for i := range n.outW {
			gOutW[i] += outGrad[s] * cache.final[s][i] * inv
			delta[s][i] = outGrad[s] * n.outW[i]
		}
	}

	grads := make([][]float64, 0, len(n.layers)*4+2)
	for li := len(n.layers) - 1; li >= 0; li-- {
		l := n.layers[li]
		normed := cache.normed[li]
		mask := cache.masks[li]
		variance := cache.batchVar[li]

		// Through dropout and ReLU.
		for s := 0; s < batch; s++ {
			for j := 0; j < l.out; j++ {
				if mask != nil {
					delta[s][j] *= mask[s][j]
				}
				if l.gamma[j]*normed[s][j]+l.beta[j] <= 0 {
					delta[s][j] = 0
				}
			}
		}

		// Through batch norm.
		gGamma := make([]float64, l.out)
		gBeta := make([]float64, l.out)
		dPre := make([][]float64, batch)
		for s := range dPre {
			dPre[s] = make([]float64, l.out)
		}
		for j := 0; j < l.out; j++ {
			sumDy := 0.0
			sumDyXh := 0.0
			for s := 0; s < batch; s++ {
				sumDy += delta[s][j]
				sumDyXh += delta[s][j] * normed[s][j]
			}
			gGamma[j] = sumDyXh * inv
			gBeta[j] = sumDy * inv
			istd := 1.0 / math.Sqrt(variance[j]+bnEpsilon)
			m := float64(batch)
			for s := 0; s < batch; s++ {
				if batch > 1 {
					dPre[s][j] = l.gamma[j] * istd / m * (m*delta[s][j] - sumDy - normed[s][j]*sumDyXh)
				} else {
					dPre[s][j] = l.gamma[j] * istd * delta[s][j]
				}
			}
		}

		// Through the dense weights.
		gW := make([]float64, len(l.w))
		gB := make([]float64, len(l.b))
		next := make([][]float64, batch)
		for s := 0; s < batch; s++ {
			next[s] = make([]float64, l.in)
			for j := 0; j < l.out; j++ {
				gB[j] += dPre[s][j] * inv
				for i := 0; i < l.in; i++ {
					gW[i*l.out+j] += cache.inputs[li][s][i] * dPre[s][j] * inv
					next[s][i] += l.w[i*l.out+j] * dPre[s][j]
				}
			}
		}
		delta = next

		// Prepend to keep the Adam moment ordering (first layer first).
		grads = append([][]float64{gW, gB, gGamma, gBeta}, grads...)
	}
	grads = append(grads, gOutW, []float64{gOutB})

	n.adamApply(grads, lr)
}

// adamApply performs one Adam update across every parameter tensor.
func (n *Network) adamApply(grads [][]float64, lr float64) {
	n.adamStep++
	t := float64(n.adamStep)
	c1 := 1 - math.Pow(adamBeta1, t)
	c2 := 1 - math.Pow(adamBeta2, t)

	params := n.paramTensors()
	for pi, p := range params {
		g := grads[pi]
		m := n.adamM[pi]
		v := n.adamV[pi]
		for i := range p {
			m[i] = adamBeta1*m[i] + (1-adamBeta1)*g[i]
			v[i] = adamBeta2*v[i] + (1-adamBeta2)*g[i]*g[i]
			p[i] -= lr * (m[i] / c1) / (math.Sqrt(v[i]/c2) + adamEpsilon)
		}
	}
	// The output bias travels through a wrapper slice; write it back.
	n.outB = params[len(params)-1][0]
}

// paramTensors returns every trainable tensor in fixed order. The output
// bias is wrapped so Adam can treat it uniformly.
func (n *Network) paramTensors() [][]float64 {
	var params [][]float64
	for _, l := range n.layers {
		params = append(params, l.w, l.b, l.gamma, l.beta)
	}
	params = append(params, n.outW, n.outBSlice())
	return params
}

// outBSlice aliases the output bias as a one-element slice. Updates through
// the slice must be copied back.
func (n *Network) outBSlice() []float64 { return []float64{n.outB} }

// State exports the network for persistence.
func (n *Network) State() *NetworkState {
	st := &NetworkState{
		InputDim: n.inputDim,
		Hidden:   append([]int(nil), n.hidden...),
		Dropout:  n.dropout,
		OutW:     append([]float64(nil), n.outW...),
		OutB:     n.outB,
		AdamStep: n.adamStep,
	}
	for _, l := range n.layers {
		st.Layers = append(st.Layers, &LayerState{
			W:       append([]float64(nil), l.w...),
			B:       append([]float64(nil), l.b...),
			Gamma:   append([]float64(nil), l.gamma...),
			Beta:    append([]float64(nil), l.beta...),
			RunMean: append([]float64(nil), l.runMean...),
			RunVar:  append([]float64(nil), l.runVar...),
			In:      l.in,
			Out:     l.out,
		})
	}
	for _, m := range n.adamM {
		st.AdamM = append(st.AdamM, append([]float64(nil), m...))
	}
	for _, v := range n.adamV {
		st.AdamV = append(st.AdamV, append([]float64(nil), v...))
	}
	return st
}

// RestoreNetwork rebuilds a network, including optimizer moments, from
// persisted state.
func RestoreNetwork(st *NetworkState, seed int64) (*Network, error) {
	if st == nil || len(st.Layers) == 0 {
		return nil, errors.ValidationError("empty network state")
	}
	n := &Network{
		inputDim: st.InputDim,
		hidden:   append([]int(nil), st.Hidden...),
		dropout:  st.Dropout,
		outW:     append([]float64(nil), st.OutW...),
		outB:     st.OutB,
		rng:      rand.New(rand.NewSource(seed)),
	}
	for _, ls := range st.Layers {
		n.layers = append(n.layers, &layer{
			w:       append([]float64(nil), ls.W...),
			b:       append([]float64(nil), ls.B...),
			gamma:   append([]float64(nil), ls.Gamma...),
			beta:    append([]float64(nil), ls.Beta...),
			runMean: append([]float64(nil), ls.RunMean...),
			runVar:  append([]float64(nil), ls.RunVar...),
			in:      ls.In,
			out:     ls.Out,
		})
	}
	if len(st.AdamM) > 0 {
		for _, m := range st.AdamM {
			n.adamM = append(n.adamM, append([]float64(nil), m...))
		}
		for _, v := range st.AdamV {
			n.adamV = append(n.adamV, append([]float64(nil), v...))
		}
		n.adamStep = st.AdamStep
	} else {
		n.initAdam()
	}
	return n, nil
}
