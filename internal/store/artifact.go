package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"cinerec/internal/models"
)

// Layout del archivo:
//
//	[0:8)   magic "CINEREC\x00"
//	[8:12)  versión de formato (uint32 LE)
//	[12:16) CRC-32 IEEE del payload (uint32 LE)
//	[16:)   payload BSON
const (
	headerSize = 16

	// FormatLegacy payload sin "version": la forma del almacenamiento se infiere.
	FormatLegacy uint32 = 1
	// FormatVersion almacenamiento etiquetado explícitamente.
	FormatVersion uint32 = 2

	MetricCosine = "cosine"
)

var magic = [8]byte{'C', 'I', 'N', 'E', 'R', 'E', 'C', 0}

type payloadDoc struct {
	Version   int32                `bson:"version"`
	CreatedAt time.Time            `bson:"createdAt"`
	K         int                  `bson:"k"`
	Metric    string               `bson:"metric"`
	Items     []models.CatalogItem `bson:"items"`
	Storage   storageDoc           `bson:"storage"`
}

type storageDoc struct {
	Kind  string     `bson:"kind"`
	TopK  []entryDoc `bson:"topk,omitempty"`
	N     int        `bson:"n,omitempty"`
	Dense []byte     `bson:"dense,omitempty"`
}

// entryDoc vecinos empaquetados: ids int32 LE y scores float32 LE.
type entryDoc struct {
	ID     int    `bson:"id"`
	IDs    []byte `bson:"ids"`
	Scores []byte `bson:"scores"`
}

// legacyDoc layout previo: catálogo en "df" y "similarity" como matriz
// (array de arrays) o como lista de {id, neighbors}.
type legacyDoc struct {
	CreatedAt  time.Time            `bson:"createdAt,omitempty"`
	Items      []models.CatalogItem `bson:"df"`
	Similarity bson.RawValue        `bson:"similarity"`
}

type legacyEntry struct {
	ID        int              `bson:"id"`
	Neighbors []legacyNeighbor `bson:"neighbors"`
}

// legacyNeighbor el score viejo es double; se baja a float32 al cargar.
type legacyNeighbor struct {
	MovieID int     `bson:"movieId"`
	Sim     float64 `bson:"sim"`
}

// Encode serializa el handle al formato actual.
func Encode(h *Handle) ([]byte, error) {
	doc := payloadDoc{
		Version:   int32(FormatVersion),
		CreatedAt: h.CreatedAt.UTC(),
		K:         h.Storage.K,
		Metric:    h.Metric,
		Items:     h.Items,
	}
	if doc.Metric == "" {
		doc.Metric = MetricCosine
	}

	switch h.Storage.Kind {
	case KindTopK:
		doc.Storage.Kind = KindTopK.String()
		doc.Storage.TopK = make([]entryDoc, len(h.Storage.TopK))
		for i, e := range h.Storage.TopK {
			doc.Storage.TopK[i] = packEntry(e)
		}
	case KindDense:
		if h.Storage.Dense == nil {
			return nil, fmt.Errorf("store: dense storage without matrix")
		}
		doc.Storage.Kind = KindDense.String()
		doc.Storage.N = h.Storage.Dense.N
		doc.Storage.Dense = packFloat32s(h.Storage.Dense.Values)
	default:
		return nil, fmt.Errorf("store: unknown storage kind %d", h.Storage.Kind)
	}

	payload, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("store: encode payload: %w", err)
	}
	return frame(FormatVersion, payload), nil
}

// EncodeLegacy escribe el layout previo (sin versión en el payload). Lo usa
// el indexer para exportar a consumidores viejos.
func EncodeLegacy(h *Handle) ([]byte, error) {
	doc := bson.D{
		{Key: "createdAt", Value: h.CreatedAt.UTC()},
		{Key: "df", Value: h.Items},
	}
	switch h.Storage.Kind {
	case KindDense:
		d := h.Storage.Dense
		rows := make([][]float64, d.N)
		for i := range rows {
			row := make([]float64, d.N)
			for j, v := range d.Values[i*d.N : (i+1)*d.N] {
				row[j] = float64(v)
			}
			rows[i] = row
		}
		doc = append(doc, bson.E{Key: "similarity", Value: rows})
	case KindTopK:
		entries := make([]legacyEntry, len(h.Storage.TopK))
		for i, e := range h.Storage.TopK {
			nbs := make([]legacyNeighbor, len(e.Neighbors))
			for j, nb := range e.Neighbors {
				nbs[j] = legacyNeighbor{MovieID: nb.MovieID, Sim: float64(nb.Sim)}
			}
			entries[i] = legacyEntry{ID: e.MovieID, Neighbors: nbs}
		}
		doc = append(doc, bson.E{Key: "similarity", Value: entries})
	default:
		return nil, fmt.Errorf("store: unknown storage kind %d", h.Storage.Kind)
	}

	payload, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("store: encode legacy payload: %w", err)
	}
	return frame(FormatLegacy, payload), nil
}

func frame(version uint32, payload []byte) []byte {
	buf := make([]byte, headerSize+len(payload))
	copy(buf, magic[:])
	binary.LittleEndian.PutUint32(buf[8:12], version)
	binary.LittleEndian.PutUint32(buf[12:16], crc32.ChecksumIEEE(payload))
	copy(buf[headerSize:], payload)
	return buf
}

// Decode valida y decodifica un artefacto completo. Cualquier falla es
// ErrStoreCorrupt: no hay carga parcial.
func Decode(data []byte) (*Handle, error) {
	if len(data) < headerSize {
		return nil, corrupt("truncated header (%d bytes)", len(data))
	}
	if !bytes.Equal(data[:8], magic[:]) {
		return nil, corrupt("bad magic")
	}
	version := binary.LittleEndian.Uint32(data[8:12])
	sum := binary.LittleEndian.Uint32(data[12:16])
	payload := data[headerSize:]
	if crc32.ChecksumIEEE(payload) != sum {
		return nil, corrupt("checksum mismatch")
	}
	if version != FormatLegacy && version != FormatVersion {
		return nil, corrupt("unknown format version %d", version)
	}
	raw := bson.Raw(payload)
	if err := raw.Validate(); err != nil {
		return nil, corrupt("payload: %v", err)
	}

	var h *Handle
	var err error
	if _, lookupErr := raw.LookupErr("version"); lookupErr != nil {
		h, err = decodeLegacy(raw)
	} else {
		h, err = decodeCurrent(raw)
	}
	if err != nil {
		return nil, err
	}
	if err := h.validate(); err != nil {
		return nil, err
	}
	return h, nil
}

func decodeCurrent(raw bson.Raw) (*Handle, error) {
	var doc payloadDoc
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, corrupt("decode payload: %v", err)
	}
	if uint32(doc.Version) != FormatVersion {
		return nil, corrupt("unknown payload version %d", doc.Version)
	}

	h := &Handle{
		Version:   FormatVersion,
		CreatedAt: doc.CreatedAt,
		Metric:    doc.Metric,
		Items:     doc.Items,
	}
	switch parseKind(doc.Storage.Kind) {
	case KindTopK:
		entries := make([]models.SimilarityEntry, len(doc.Storage.TopK))
		for i, e := range doc.Storage.TopK {
			entry, err := unpackEntry(e)
			if err != nil {
				return nil, err
			}
			entries[i] = entry
		}
		h.Storage = NewTopK(entries, doc.K)
	case KindDense:
		if len(doc.Storage.Dense)%4 != 0 {
			return nil, corrupt("dense matrix: %d bytes", len(doc.Storage.Dense))
		}
		h.Storage = NewDense(doc.Storage.N, unpackFloat32s(doc.Storage.Dense))
	default:
		return nil, corrupt("unknown storage kind %q", doc.Storage.Kind)
	}
	return h, nil
}

func decodeLegacy(raw bson.Raw) (*Handle, error) {
	var doc legacyDoc
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, corrupt("decode legacy payload: %v", err)
	}
	if doc.Similarity.Type != bsontype.Array {
		return nil, corrupt("legacy payload without similarity array")
	}
	// el layout previo no guardaba ids: la posición es el id
	for i := range doc.Items {
		doc.Items[i].ID = i + 1
	}

	h := &Handle{
		Version:   FormatLegacy,
		CreatedAt: doc.CreatedAt,
		Metric:    MetricCosine,
		Items:     doc.Items,
	}

	values, err := doc.Similarity.Array().Values()
	if err != nil {
		return nil, corrupt("legacy similarity: %v", err)
	}
	if len(values) == 0 {
		h.Storage = NewTopK(nil, 0)
		return h, nil
	}

	switch values[0].Type {
	case bsontype.Array:
		var rows [][]float64
		if err := doc.Similarity.Unmarshal(&rows); err != nil {
			return nil, corrupt("legacy dense matrix: %v", err)
		}
		n := len(rows)
		flat := make([]float32, 0, n*n)
		for i, row := range rows {
			if len(row) != n {
				return nil, corrupt("legacy dense row %d has %d columns, want %d", i, len(row), n)
			}
			for _, v := range row {
				flat = append(flat, float32(v))
			}
		}
		h.Storage = NewDense(n, flat)
	case bsontype.EmbeddedDocument:
		var legacy []legacyEntry
		if err := doc.Similarity.Unmarshal(&legacy); err != nil {
			return nil, corrupt("legacy top-k entries: %v", err)
		}
		entries := make([]models.SimilarityEntry, len(legacy))
		k := 0
		for i, e := range legacy {
			nbs := normalizeLegacyNeighbors(e.ID, e.Neighbors)
			entries[i] = models.SimilarityEntry{MovieID: e.ID, Neighbors: nbs}
			k = max(k, len(nbs))
		}
		h.Storage = NewTopK(entries, k)
	default:
		return nil, corrupt("legacy similarity of unexpected shape (%s)", values[0].Type)
	}
	return h, nil
}

// normalizeLegacyNeighbors los builds viejos podían incluir al propio ítem,
// repetir vecinos o no ordenar: se descarta self, se ordena por score desc e
// id asc y se queda la primera aparición de cada id.
func normalizeLegacyNeighbors(self int, in []legacyNeighbor) []models.Neighbor {
	out := make([]models.Neighbor, 0, len(in))
	for _, nb := range in {
		if nb.MovieID != self {
			out = append(out, models.Neighbor{MovieID: nb.MovieID, Sim: float32(nb.Sim)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return neighborBefore(out[i], out[j]) })

	seen := make(map[int]bool, len(out))
	kept := out[:0]
	for _, nb := range out {
		if !seen[nb.MovieID] {
			seen[nb.MovieID] = true
			kept = append(kept, nb)
		}
	}
	return kept
}

// neighborBefore orden de una entrada: score desc, id asc en empate.
func neighborBefore(a, b models.Neighbor) bool {
	if a.Sim != b.Sim {
		return a.Sim > b.Sim
	}
	return a.MovieID < b.MovieID
}

func packEntry(e models.SimilarityEntry) entryDoc {
	ids := make([]byte, 4*len(e.Neighbors))
	scores := make([]byte, 4*len(e.Neighbors))
	for i, nb := range e.Neighbors {
		binary.LittleEndian.PutUint32(ids[4*i:], uint32(int32(nb.MovieID)))
		binary.LittleEndian.PutUint32(scores[4*i:], math.Float32bits(nb.Sim))
	}
	return entryDoc{ID: e.MovieID, IDs: ids, Scores: scores}
}

func unpackEntry(d entryDoc) (models.SimilarityEntry, error) {
	if len(d.IDs)%4 != 0 || len(d.IDs) != len(d.Scores) {
		return models.SimilarityEntry{}, corrupt("entry %d: %d id bytes, %d score bytes", d.ID, len(d.IDs), len(d.Scores))
	}
	n := len(d.IDs) / 4
	neighbors := make([]models.Neighbor, n)
	for i := range neighbors {
		neighbors[i] = models.Neighbor{
			MovieID: int(int32(binary.LittleEndian.Uint32(d.IDs[4*i:]))),
			Sim:     math.Float32frombits(binary.LittleEndian.Uint32(d.Scores[4*i:])),
		}
	}
	return models.SimilarityEntry{MovieID: d.ID, Neighbors: neighbors}, nil
}

func packFloat32s(vals []float32) []byte {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func unpackFloat32s(buf []byte) []float32 {
	vals := make([]float32, len(buf)/4)
	for i := range vals {
		vals[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vals
}
