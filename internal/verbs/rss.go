// File: internal/verbs/rss.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// create_hash_rxqs (spec §4.7): builds the RSS indirection table and
// hash queue-pair fabric spread over a device's already-set-up RxQueue
// array.

package verbs

// ToeplitzKeyLen is the fixed default Toeplitz key length (spec §6).
const ToeplitzKeyLen = 40

// DefaultToeplitzKey is the literal 40-byte default symmetric Toeplitz
// key (spec §6), used unless a device config overrides it.
var DefaultToeplitzKey = [ToeplitzKeyLen]byte{
	0x2c, 0xc6, 0x81, 0xd1, 0x5b, 0xdb, 0xf4, 0xf7, 0xfc, 0xa2,
	0x83, 0x19, 0xdb, 0x1a, 0x3e, 0x94, 0x6b, 0x9e, 0x38, 0xd9,
	0x2c, 0x9c, 0x03, 0xd1, 0xad, 0x99, 0x44, 0xa7, 0xd9, 0x56,
	0x3d, 0x59, 0x06, 0x3c, 0x25, 0xf3, 0xfc, 0x1f, 0xdc, 0x2a,
}

// Hash field masks (spec §4.7): which packet header fields a hash QP
// folds into its RSS hash.
const (
	HashFieldsNone  uint32 = 0
	HashFieldsIPv4  uint32 = 1 << 0
	HashFieldsTCPv4 uint32 = 1 << 1
	HashFieldsUDPv4 uint32 = 1 << 2
)

// hashQPFieldSets is the fixed set of field masks create_hash_rxqs
// spreads its hash QPs across (spec §4.7: "TCPv4 4-tuple, UDPv4
// 4-tuple, IPv4 2-tuple, no-hash").
var hashQPFieldSets = []uint32{
	HashFieldsTCPv4 | HashFieldsIPv4,
	HashFieldsUDPv4 | HashFieldsIPv4,
	HashFieldsIPv4,
	HashFieldsNone,
}

// HashFabric is the result of create_hash_rxqs: the indirection table
// spread over the caller's RxQueue array and the hash QPs built on top
// of it.
type HashFabric struct {
	Indir   IndirHandle
	HashQPs []QPHandle
}

// indirTableSize computes Wn = 2^ceil(log2(Rn)) (spec §4.7).
func indirTableSize(rn int) int {
	w := 1
	for w < rn {
		w <<= 1
	}
	return w
}

// hashQPCount computes Hn = (Rn == 1) ? 1 : 4 (spec §4.7).
func hashQPCount(rn int) int {
	if rn <= 1 {
		return 1
	}
	return len(hashQPFieldSets)
}

// CreateHashRxQs builds an indirection table sized to the next power
// of two at or above len(rxqs), populates it by wrapping rxqs around
// (wqs[i] = rxqs[i mod Rn]), and creates Hn hash queue-pairs against
// it, each keyed by a distinct header-field mask and the supplied
// Toeplitz key (the zero value of which selects DefaultToeplitzKey).
func CreateHashRxQs(backend Backend, rxqs []*RxQueue, toeplitzKey [ToeplitzKeyLen]byte) (*HashFabric, error) {
	rn := len(rxqs)
	if rn == 0 {
		return nil, ErrSetupFailed("create_hash_rxqs", errNoQueues)
	}
	if toeplitzKey == ([ToeplitzKeyLen]byte{}) {
		toeplitzKey = DefaultToeplitzKey
	}

	wn := indirTableSize(rn)
	wqs := make([]WQHandle, wn)
	for i := 0; i < wn; i++ {
		wqs[i] = rxqs[i%rn].WQ
	}

	indir, err := backend.CreateIndirectionTable(wqs)
	if err != nil {
		return nil, ErrSetupFailed("create_hash_rxqs: indirection table", err)
	}

	hn := hashQPCount(rn)
	qps := make([]QPHandle, 0, hn)
	tailStart := len(hashQPFieldSets) - hn
	for i := 0; i < hn; i++ {
		qp, err := backend.CreateHashQP(indir, hashQPFieldSets[tailStart+i], toeplitzKey)
		if err != nil {
			for _, created := range qps {
				backend.DestroyQP(created)
			}
			backend.DestroyIndirectionTable(indir)
			return nil, ErrSetupFailed("create_hash_rxqs: hash qp", err)
		}
		qps = append(qps, qp)
	}

	for _, q := range rxqs {
		q.Indir = indir
		q.HashQP = qps
	}

	return &HashFabric{Indir: indir, HashQPs: qps}, nil
}

// Destroy tears the fabric down in reverse order of creation.
func (f *HashFabric) Destroy(backend Backend) {
	for i := len(f.HashQPs) - 1; i >= 0; i-- {
		backend.DestroyQP(f.HashQPs[i])
	}
	backend.DestroyIndirectionTable(f.Indir)
}

var errNoQueues = fabricError("create_hash_rxqs requires at least one rx queue")

type fabricError string

func (e fabricError) Error() string { return string(e) }
