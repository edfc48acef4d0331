package blockprocessor

import (
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/utils/consensushashing"
	"github.com/orosnet/orosd/infrastructure/db/database"
)

// applyRun applies an oldest-first epoch-homogeneous run of blunds in
// one database transaction. When the run's trailing block is a genesis
// block and computeLeaders is set, leader election for the newly
// opened epoch is computed within the same transaction, so the epoch
// never becomes visible without its schedule.
func (bp *blockProcessor) applyRun(computeLeaders bool,
	blunds []*externalapi.Blund) (*externalapi.DomainHash, error) {

	dbTx, err := bp.databaseContext.Begin()
	if err != nil {
		return nil, err
	}
	defer dbTx.RollbackUnlessClosed()

	newTip := externalapi.NewZeroHash()
	for _, blund := range blunds {
		newTip, err = bp.applyBlund(dbTx, blund)
		if err != nil {
			return nil, err
		}
	}

	if computeLeaders {
		if genesisBlock, ok := blunds[len(blunds)-1].Block.(*externalapi.GenesisBlock); ok {
			newEpoch := genesisBlock.GenesisHeader.Epoch
			log.Infof("computing slot leaders for the newly opened epoch %d", newEpoch)
			err := bp.leaderElectionManager.ComputeLeaders(dbTx, newEpoch)
			if err != nil {
				return nil, err
			}
		}
	}

	err = dbTx.Commit()
	if err != nil {
		return nil, err
	}
	return newTip, nil
}

// rollbackRun reverts a newest-first run of blunds in one database
// transaction and returns the restored tip.
func (bp *blockProcessor) rollbackRun(blunds []*externalapi.Blund) (*externalapi.DomainHash, error) {
	dbTx, err := bp.databaseContext.Begin()
	if err != nil {
		return nil, err
	}
	defer dbTx.RollbackUnlessClosed()

	newTip := externalapi.NewZeroHash()
	for _, blund := range blunds {
		newTip, err = bp.rollbackBlund(dbTx, blund)
		if err != nil {
			return nil, err
		}
	}

	err = dbTx.Commit()
	if err != nil {
		return nil, err
	}
	return newTip, nil
}

func (bp *blockProcessor) applyBlund(dbTx database.DataAccessor,
	blund *externalapi.Blund) (*externalapi.DomainHash, error) {

	blockHash := consensushashing.BlockHash(blund.Block)
	err := bp.blockStore.PutBlund(dbTx, blockHash, blund)
	if err != nil {
		return nil, err
	}
	err = bp.mainChainStore.Append(dbTx, blockHash)
	if err != nil {
		return nil, err
	}

	if mainBlock, ok := blund.Block.(*externalapi.MainBlock); ok {
		err = bp.applyMainBlockState(dbTx, blockHash, mainBlock, blund.Undo)
		if err != nil {
			return nil, err
		}
	}

	err = bp.tipStore.UpdateTip(dbTx, blockHash)
	if err != nil {
		return nil, err
	}
	return blockHash, nil
}

func (bp *blockProcessor) applyMainBlockState(dbTx database.DataAccessor,
	blockHash *externalapi.DomainHash, block *externalapi.MainBlock, undo *externalapi.BlockUndo) error {

	if len(undo.TxUndos) != len(block.Body.Transactions) {
		log.Criticalf("block %s carries %d transactions but its undo covers %d",
			blockHash, len(block.Body.Transactions), len(undo.TxUndos))
		panic("missing undo data for an applied transaction")
	}

	for i, tx := range block.Body.Transactions {
		txID := consensushashing.TransactionID(tx)
		for _, spent := range undo.TxUndos[i].SpentEntries {
			err := bp.utxoStore.RemoveEntry(dbTx, &spent.Outpoint)
			if err != nil {
				return err
			}
		}
		for outputIndex, output := range tx.Outputs {
			outpoint := externalapi.DomainOutpoint{TransactionID: *txID, Index: uint32(outputIndex)}
			err := bp.utxoStore.AddEntry(dbTx, &outpoint, &externalapi.UTXOEntry{
				Amount:    output.Value,
				Recipient: output.Recipient,
			})
			if err != nil {
				return err
			}
		}
	}

	for _, certificate := range block.Body.Certificates {
		err := bp.certificateStore.PutCertificate(dbTx, certificate)
		if err != nil {
			return err
		}
	}
	return nil
}

// rollbackBlund reverts one blund and returns the restored tip: the
// reverted block's parent.
func (bp *blockProcessor) rollbackBlund(dbTx database.DataAccessor,
	blund *externalapi.Blund) (*externalapi.DomainHash, error) {

	blockHash := consensushashing.BlockHash(blund.Block)

	switch block := blund.Block.(type) {
	case *externalapi.MainBlock:
		err := bp.rollbackMainBlockState(dbTx, blockHash, block, blund.Undo)
		if err != nil {
			return nil, err
		}
	case *externalapi.GenesisBlock:
		// The epoch's schedule was drawn from the chain state this
		// block opened; a fork reopening the epoch must recompute it
		// from its own state.
		err := bp.leaderElectionManager.DiscardLeaders(dbTx, block.GenesisHeader.Epoch)
		if err != nil {
			return nil, err
		}
	}

	err := bp.mainChainStore.RemoveLast(dbTx, blockHash)
	if err != nil {
		return nil, err
	}
	err = bp.blockStore.DeleteBlund(dbTx, blockHash)
	if err != nil {
		return nil, err
	}

	parentHash := blund.Header().ParentHash()
	err = bp.tipStore.UpdateTip(dbTx, parentHash)
	if err != nil {
		return nil, err
	}
	return parentHash, nil
}

func (bp *blockProcessor) rollbackMainBlockState(dbTx database.DataAccessor,
	blockHash *externalapi.DomainHash, block *externalapi.MainBlock, undo *externalapi.BlockUndo) error {

	if len(undo.TxUndos) != len(block.Body.Transactions) {
		log.Criticalf("block %s carries %d transactions but its undo covers %d",
			blockHash, len(block.Body.Transactions), len(undo.TxUndos))
		panic("missing undo data for a reverted transaction")
	}

	// Transactions are reverted in reverse block order, so outputs
	// consumed by later transactions of the same block are restored
	// before their producers are reverted.
	for i := len(block.Body.Transactions) - 1; i >= 0; i-- {
		tx := block.Body.Transactions[i]
		txID := consensushashing.TransactionID(tx)
		for outputIndex := range tx.Outputs {
			outpoint := externalapi.DomainOutpoint{TransactionID: *txID, Index: uint32(outputIndex)}
			err := bp.utxoStore.RemoveEntry(dbTx, &outpoint)
			if err != nil {
				return err
			}
		}
		for _, spent := range undo.TxUndos[i].SpentEntries {
			err := bp.utxoStore.AddEntry(dbTx, &spent.Outpoint, &spent.Entry)
			if err != nil {
				return err
			}
		}
	}

	for _, certificate := range block.Body.Certificates {
		err := bp.certificateStore.DeleteCertificate(dbTx, &certificate.Issuer)
		if err != nil {
			return err
		}
	}
	for _, replaced := range undo.ReplacedCertificates {
		err := bp.certificateStore.PutCertificate(dbTx, replaced)
		if err != nil {
			return err
		}
	}
	return nil
}
