package safe

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"gauge-automation/lib/utils"
	"gauge-automation/modules/export"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	Version          = "1.0"
	TxBuilderVersion = "1.18.0"
)

type Builder struct {
	ChainID       string
	Safe          common.Address
	MaxTxPerBatch int
	// Now defaults to time.Now
	Now func() time.Time
}

// Checksum identifies a list of transactions.
func Checksum(txs []Transaction) (string, error) {
	buf, err := json.Marshal(txs)
	if err != nil {
		return "", err
	}
	return crypto.Keccak256Hash(buf).Hex(), nil
}

// Batches splits txs into batches of at most MaxTxPerBatch transactions.
func (b *Builder) Batches(description string, txs []Transaction) ([]Batch, error) {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	size := b.MaxTxPerBatch
	if size <= 0 {
		size = 50
	}

	out := make([]Batch, 0)
	for _, chunk := range utils.Chunk(txs, size) {
		checksum, err := Checksum(chunk)
		if err != nil {
			return nil, err
		}
		out = append(out, Batch{
			Version:   Version,
			ChainID:   b.ChainID,
			CreatedAt: now().Unix(),
			Meta: Meta{
				Name:                   "Transactions Batch",
				Description:            description,
				TxBuilderVersion:       TxBuilderVersion,
				CreatedFromSafeAddress: b.Safe.Hex(),
				Checksum:               checksum,
			},
			Transactions: chunk,
		})
	}
	return out, nil
}

// Write stores batches as <dir>/<name>-<i>.json and returns the paths.
func Write(dir string, name string, batches []Batch) ([]string, error) {
	paths := make([]string, 0, len(batches))
	for i, batch := range batches {
		path := filepath.Join(dir, fmt.Sprintf("%s-%d.json", name, i))
		if err := export.WriteJSON(path, batch); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
