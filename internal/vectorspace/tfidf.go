// Package vectorspace ajusta un vocabulario TF-IDF global sobre los documentos
// del catálogo y proyecta cada documento a un vector disperso normalizado (L2).
package vectorspace

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrEmptyCorpus: no hay documentos o ninguno aporta términos.
var ErrEmptyCorpus = errors.New("vectorspace: empty corpus")

// Options de ajuste del modelo.
type Options struct {
	// MaxFeatures limita el vocabulario a los términos más frecuentes del
	// corpus (0 = sin límite). Los términos fuera del vocabulario pesan 0.
	MaxFeatures int
}

// Vector es un vector disperso: Indices ordenados asc y sus pesos.
// Los vectores no vacíos tienen norma 1.
type Vector struct {
	Indices []int32
	Values  []float64
}

// Norm devuelve la norma L2 (0 para vectores vacíos).
func (v Vector) Norm() float64 {
	var s float64
	for _, x := range v.Values {
		s += x * x
	}
	return math.Sqrt(s)
}

// Dot producto escalar entre dos vectores dispersos ordenados.
func (v Vector) Dot(o Vector) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			dot += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return dot
}

// Cosine = (u·v) / (|u|·|v|), 0 si alguna norma es 0.
func Cosine(u, v Vector) float64 {
	nu, nv := u.Norm(), v.Norm()
	if nu == 0 || nv == 0 {
		return 0
	}
	return u.Dot(v) / (nu * nv)
}

// Model es el vocabulario ajustado con su idf.
type Model struct {
	vocab map[string]int32
	terms []string
	idf   []float64
	docs  int
}

// Fit ajusta el modelo sobre todo el corpus. Para un corpus y opciones fijos
// el vocabulario y los vectores resultantes son reproducibles.
func Fit(docs []string, opts Options) (*Model, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}

	df := make(map[string]int)
	tf := make(map[string]int)
	for _, d := range docs {
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(d) {
			tf[tok]++
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				df[tok]++
			}
		}
	}
	if len(df) == 0 {
		return nil, ErrEmptyCorpus
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}

	if opts.MaxFeatures > 0 && len(terms) > opts.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if tf[terms[i]] != tf[terms[j]] {
				return tf[terms[i]] > tf[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:opts.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	m := &Model{
		vocab: make(map[string]int32, len(terms)),
		terms: terms,
		idf:   make([]float64, len(terms)),
		docs:  len(docs),
	}
	for i, t := range terms {
		m.vocab[t] = int32(i)
		m.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	return m, nil
}

// VocabularySize número de términos retenidos.
func (m *Model) VocabularySize() int { return len(m.terms) }

// Fingerprint identifica el modelo (corpus size + vocabulario). Dos procesos
// que ajustan el mismo catálogo con las mismas opciones obtienen el mismo valor.
func (m *Model) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%d\n", m.docs)
	for _, t := range m.terms {
		h.Write([]byte(t))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Terms devuelve el vocabulario en orden de índice.
func (m *Model) Terms() []string {
	out := make([]string, len(m.terms))
	copy(out, m.terms)
	return out
}

// Transform proyecta un documento. Un documento sin términos conocidos da el
// vector vacío (todo ceros).
func (m *Model) Transform(doc string) Vector {
	counts := make(map[int32]float64)
	for _, tok := range Tokenize(doc) {
		if idx, ok := m.vocab[tok]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return Vector{}
	}

	v := Vector{
		Indices: make([]int32, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		v.Indices = append(v.Indices, idx)
	}
	sort.Slice(v.Indices, func(i, j int) bool { return v.Indices[i] < v.Indices[j] })

	var norm float64
	for _, idx := range v.Indices {
		w := counts[idx] * m.idf[idx]
		v.Values = append(v.Values, w)
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for i := range v.Values {
		v.Values[i] /= norm
	}
	return v
}

// TransformAll proyecta todos los documentos en orden.
func (m *Model) TransformAll(docs []string) []Vector {
	out := make([]Vector, len(docs))
	for i, d := range docs {
		out[i] = m.Transform(d)
	}
	return out
}

// FitTransform = Fit + TransformAll.
func FitTransform(docs []string, opts Options) (*Model, []Vector, error) {
	m, err := Fit(docs, opts)
	if err != nil {
		return nil, nil, err
	}
	return m, m.TransformAll(docs), nil
}
