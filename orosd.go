package main

import (
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/kaspanet/go-secp256k1"
	"github.com/orosnet/orosd/domain/ledger"
	"github.com/orosnet/orosd/domain/ledger/model/externalapi"
	"github.com/orosnet/orosd/domain/ledger/utils/blocksigning"
	"github.com/orosnet/orosd/infrastructure/config"
	"github.com/orosnet/orosd/infrastructure/db/database"
	"github.com/orosnet/orosd/infrastructure/db/database/ldb"
	"github.com/orosnet/orosd/infrastructure/keys"
	"github.com/orosnet/orosd/util/panics"
)

const (
	dataDirname            = "data"
	levelDBCacheSizeMiB    = 256
	genesisLookaheadEpochs = 2
)

// orosd wraps the node's long-running services: the ledger core and
// the slot clock that drives local block production.
type orosd struct {
	cfg             *config.Config
	databaseContext database.Database
	ledger          ledger.Ledger

	keyPair     *secp256k1.SchnorrKeyPair
	stakeholder *externalapi.StakeholderID

	started, shutdown int32
	quit              chan struct{}
}

// newOrosd opens the node's database, loads the stakeholder key when
// one is configured, and assembles the ledger on top of them.
func newOrosd(cfg *config.Config) (*orosd, error) {
	databasePath := filepath.Join(cfg.AppDir, dataDirname)
	log.Infof("Loading database from '%s'", databasePath)
	databaseContext, err := ldb.NewLevelDB(databasePath, levelDBCacheSizeMiB)
	if err != nil {
		return nil, err
	}

	keyPair, err := keys.LoadKeyPair(cfg.KeyFile)
	if err != nil {
		databaseContext.Close()
		return nil, err
	}
	var stakeholder *externalapi.StakeholderID
	if keyPair == nil {
		log.Infof("No stakeholder key at '%s', running without block production", cfg.KeyFile)
	} else {
		publicKey, err := blocksigning.SerializePublicKey(keyPair)
		if err != nil {
			databaseContext.Close()
			return nil, err
		}
		stakeholder = blocksigning.StakeholderIDFromPublicKey(publicKey)
		log.Infof("Producing blocks as stakeholder %s", stakeholder)
	}

	ledgerInstance, err := ledger.New(cfg.NetParams(), databaseContext, keyPair)
	if err != nil {
		databaseContext.Close()
		return nil, err
	}
	tipHeader, err := ledgerInstance.TipHeader()
	if err != nil {
		databaseContext.Close()
		return nil, err
	}
	log.Infof("Chain tip is at %s (difficulty %d)",
		tipHeader.EpochOrSlot(), tipHeader.Difficulty())

	return &orosd{
		cfg:             cfg,
		databaseContext: databaseContext,
		ledger:          ledgerInstance,
		keyPair:         keyPair,
		stakeholder:     stakeholder,
		quit:            make(chan struct{}),
	}, nil
}

// start launches the orosd services.
func (o *orosd) start() {
	if atomic.AddInt32(&o.started, 1) != 1 {
		return
	}
	if o.keyPair == nil {
		return
	}
	spawn := panics.GoroutineWrapperFunc(log)
	spawn(o.slotLoop)
}

// stop gracefully shuts down all the orosd services.
func (o *orosd) stop() {
	if atomic.AddInt32(&o.shutdown, 1) != 1 {
		log.Infof("Orosd is already in the process of shutting down")
		return
	}
	close(o.quit)
	err := o.databaseContext.Close()
	if err != nil {
		log.Errorf("Error closing the database: %+v", err)
	}
}

// slotLoop ticks once per slot and attempts local block production:
// genesis blocks when an epoch boundary is within reach, and a main
// block whenever this stakeholder leads the current slot.
func (o *orosd) slotLoop() {
	params := o.cfg.NetParams()
	ticker := time.NewTicker(params.SlotDuration)
	defer ticker.Stop()

	for {
		select {
		case <-o.quit:
			return
		case <-ticker.C:
		}
		currentSlot := params.SlotAt(time.Now())
		o.tryCreateGenesisBlocks(currentSlot)
		o.tryCreateMainBlock(currentSlot)
	}
}

// tryCreateGenesisBlocks attempts the genesis blocks the tip may be
// ready for. Eligibility is rechecked by the builder, so ineligible
// epochs are cheap no-ops.
func (o *orosd) tryCreateGenesisBlocks(currentSlot externalapi.SlotID) {
	for i := 0; i < genesisLookaheadEpochs; i++ {
		epoch := currentSlot.Epoch + externalapi.EpochIndex(i)
		block, _, err := o.ledger.CreateGenesisBlock(epoch)
		if err != nil {
			log.Warnf("Failed to create the genesis block for epoch %d: %+v", epoch, err)
			return
		}
		if block != nil {
			log.Infof("Opened epoch %d", epoch)
		}
	}
}

func (o *orosd) tryCreateMainBlock(currentSlot externalapi.SlotID) {
	leader, err := o.ledger.SlotLeader(currentSlot)
	if err != nil {
		log.Debugf("No leader known for slot %s: %s", currentSlot, err)
		return
	}
	if !leader.Equal(o.stakeholder) {
		return
	}
	_, err = o.ledger.CreateMainBlock(currentSlot)
	if err != nil {
		log.Warnf("Failed to create a block for slot %s: %+v", currentSlot, err)
	}
}
