package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bitcraps/bitcraps/consensus"
)

// Blockchain is an append-only, hash-chained record of every finalized
// or skipped consensus slot across every game this node has witnessed.
// It implements consensus.Ledger.
type Blockchain struct {
	mu     sync.RWMutex
	blocks []Block
}

// NewBlockchain creates a blockchain seeded with an empty genesis block.
func NewBlockchain() *Blockchain {
	bc := &Blockchain{blocks: make([]Block, 0, 1)}
	genesis := Block{
		Index:     0,
		Timestamp: 0,
		PrevHash:  "0",
		Outcome:   consensus.SlotFinalized,
		Reason:    "genesis",
	}
	genesis.Hash = bc.calculateHash(genesis)
	bc.blocks = append(bc.blocks, genesis)
	return bc
}

// Append records a certificate's outcome as the next block in the
// chain. It implements consensus.Ledger.
func (bc *Blockchain) Append(cert consensus.Certificate, outcome consensus.SlotOutcome) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	latest := bc.blocks[len(bc.blocks)-1]

	var game string
	var slot uint64
	if cert.Proposal != nil {
		game = cert.Proposal.Game.String()
		slot = cert.Proposal.Slot
	}

	newBlock := Block{
		Index:     latest.Index + 1,
		Timestamp: time.Now().Unix(),
		PrevHash:  latest.Hash,
		Game:      game,
		Slot:      slot,
		Outcome:   outcome,
		Proposal:  cert.Proposal,
		Votes:     cert.Votes,
		Reason:    cert.Reason,
	}
	newBlock.Hash = bc.calculateHash(newBlock)

	if err := bc.validateBlock(newBlock, latest); err != nil {
		return fmt.Errorf("ledger: invalid block: %w", err)
	}

	bc.blocks = append(bc.blocks, newBlock)
	return nil
}

// GetLatest returns the most recently appended block.
func (bc *Blockchain) GetLatest() (Block, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	if len(bc.blocks) == 0 {
		return Block{}, fmt.Errorf("ledger: blockchain is empty")
	}
	return bc.blocks[len(bc.blocks)-1], nil
}

// GetByIndex retrieves a block by its position in the chain.
func (bc *Blockchain) GetByIndex(index int) (*Block, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	if index < 0 || index >= len(bc.blocks) {
		return nil, fmt.Errorf("ledger: index %d out of range", index)
	}
	block := bc.blocks[index]
	return &block, nil
}

// Verify walks the entire chain checking hash linkage and per-block
// integrity. It implements consensus.Ledger.
func (bc *Blockchain) Verify() error {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	if len(bc.blocks) == 0 {
		return fmt.Errorf("ledger: empty blockchain")
	}
	if bc.blocks[0].PrevHash != "0" {
		return fmt.Errorf("ledger: invalid genesis block")
	}

	for i := 1; i < len(bc.blocks); i++ {
		if err := bc.validateBlock(bc.blocks[i], bc.blocks[i-1]); err != nil {
			return fmt.Errorf("ledger: block %d invalid: %w", i, err)
		}
	}
	return nil
}

func (bc *Blockchain) validateBlock(current, previous Block) error {
	if current.Index != previous.Index+1 {
		return fmt.Errorf("invalid index: expected %d, got %d", previous.Index+1, current.Index)
	}
	if current.PrevHash != previous.Hash {
		return fmt.Errorf("invalid prev hash: expected %s, got %s", previous.Hash, current.PrevHash)
	}
	expectedHash := bc.calculateHash(current)
	if current.Hash != expectedHash {
		return fmt.Errorf("invalid hash: expected %s, got %s", expectedHash, current.Hash)
	}
	if current.Outcome == consensus.SlotFinalized && current.Proposal != nil && len(current.Votes) == 0 {
		return fmt.Errorf("finalized block %d carries no votes", current.Index)
	}
	return nil
}

// calculateHash hashes a block's content deterministically; the Hash
// field itself is excluded so the chain can be recomputed from scratch.
func (bc *Blockchain) calculateHash(block Block) string {
	proposalBytes, _ := json.Marshal(block.Proposal)
	votesBytes, _ := json.Marshal(block.Votes)

	data := fmt.Sprintf("%d%d%s%s%d%d%s%s%s",
		block.Index,
		block.Timestamp,
		block.PrevHash,
		block.Game,
		block.Slot,
		int(block.Outcome),
		string(proposalBytes),
		string(votesBytes),
		block.Reason,
	)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
