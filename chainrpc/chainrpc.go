// Copyright 2021 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

// Package chainrpc adapts the indexer to a CometBFT-based consensus node. It
// wraps the node's RPC HTTP client, exposing exactly the two queries the
// block processor needs: whether a height is finalized, and the ordered
// shielded transactions it contains. Extraction of MASP sub-transactions
// from a block's raw transaction bytes is a cryptographic concern that sits
// upstream of this adapter and is treated as a pass-through stub here.
package chainrpc

import (
	"context"
	"fmt"

	cometbfthttp "github.com/cometbft/cometbft/rpc/client/http"
)

// Output is a single shielded output description: a leaf commitment value
// and, conceptually, whatever else is needed to later reconstruct the note.
// Reconstruction data beyond the commitment is out of scope here; only Cmu
// is needed to drive tree.Append.
type Output struct {
	Cmu [32]byte
}

// ShieldedTx is one decoded MASP sub-transaction: its ordered outputs, plus
// the raw encoded bytes that get persisted verbatim alongside the note
// index.
type ShieldedTx struct {
	Outputs []Output
	Raw     []byte
}

// Transaction is one block-level transaction, carrying zero or more MASP
// sub-transactions in their intra-transaction order.
type Transaction struct {
	MaspTxs []ShieldedTx
}

// IndexedTransaction pairs a transaction with its 0-based position in the
// block's canonical order.
type IndexedTransaction struct {
	TxIndex     uint32
	Transaction Transaction
}

// BlockData is everything the block processor needs about one height: its
// transactions, in canonical block order.
type BlockData struct {
	Transactions []IndexedTransaction
}

// Client queries a CometBFT consensus node for block finality and shielded
// transaction data.
type Client struct {
	rpc *cometbfthttp.HTTP
}

// New dials the consensus node's RPC endpoint. remote is a URL such as
// "http://localhost:26657"; no websocket endpoint is used since this
// adapter only issues request/response queries.
func New(remote string) (*Client, error) {
	rpc, err := cometbfthttp.New(remote, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("could not create rpc client: %w", err)
	}
	return &Client{rpc: rpc}, nil
}

// IsBlockCommitted reports whether the consensus node has finalized height.
// It is used as a liveness probe before fetching a block; returning false
// is the normal tip-waiting condition, not a fault.
func (c *Client) IsBlockCommitted(ctx context.Context, height uint64) (bool, error) {
	status, err := c.rpc.Status(ctx)
	if err != nil {
		return false, fmt.Errorf("could not query node status: %w", err)
	}
	if status.SyncInfo.CatchingUp {
		return false, nil
	}
	latest := uint64(status.SyncInfo.LatestBlockHeight)
	return height <= latest, nil
}

// QueryMaspTxsInBlock fetches height's transactions, in canonical block
// order, and extracts their shielded sub-transactions. Decoding the raw
// transaction bytes into ShieldedTx values is treated as already performed
// upstream of this boundary; see decodeShieldedTxs.
func (c *Client) QueryMaspTxsInBlock(ctx context.Context, height uint64) (BlockData, error) {
	h := int64(height)
	block, err := c.rpc.Block(ctx, &h)
	if err != nil {
		return BlockData{}, fmt.Errorf("could not fetch block %d: %w", height, err)
	}

	data := BlockData{
		Transactions: make([]IndexedTransaction, 0, len(block.Block.Data.Txs)),
	}
	for idx, raw := range block.Block.Data.Txs {
		maspTxs, err := decodeShieldedTxs(raw)
		if err != nil {
			return BlockData{}, fmt.Errorf("could not decode transaction %d at height %d: %w", idx, height, err)
		}
		data.Transactions = append(data.Transactions, IndexedTransaction{
			TxIndex:     uint32(idx),
			Transaction: Transaction{MaspTxs: maspTxs},
		})
	}
	return data, nil
}
