// Package sim is the in-process deterministic ledger backend. It gives
// scripts stable addresses, digests and gas numbers without a network:
// identity is content-derived, time and ordering come from a logical
// clock, and state lives in plain maps with per-version history.
package sim

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/movekit/transcheck/internal/ledger"
	"github.com/movekit/transcheck/internal/runerr"
)

// DefaultGasBudget funds each genesis gas coin when init gives no
// --max-gas.
const DefaultGasBudget = 1_000_000_000_000

const gasCoinType = "0x2::coin::Coin<0x2::iota::IOTA>"

// Recorder receives write-through copies of committed state. The
// simulator works identically with a nil recorder; persistence is an
// overlay, never a source of truth.
type Recorder interface {
	RecordObject(ctx context.Context, id string, version uint64, owner, objType string, payload []byte) error
	RecordCheckpoint(ctx context.Context, seq, epoch, totalTxs uint64, digest string) error
}

type objectKind int

const (
	coinObject objectKind = iota
	packageObject
	plainObject
)

// object is the simulator's mutable record of one live object.
type object struct {
	id      ledger.ObjectID
	version ledger.Version
	owner   ledger.Owner
	kind    objectKind
	balance uint64 // coinObject
	typ     string
	modules []string       // packageObject
	fields  []ledger.Field // plainObject
}

func (o *object) clone() *object {
	c := *o
	c.modules = append([]string(nil), o.modules...)
	c.fields = append([]ledger.Field(nil), o.fields...)
	return &c
}

type versionKey struct {
	id      ledger.ObjectID
	version ledger.Version
}

// Ledger implements the Simulator interface. All state is guarded by
// one mutex; tasks run strictly sequentially so contention is not a
// concern, the lock just keeps invariants obvious.
type Ledger struct {
	mu    sync.Mutex
	log   *slog.Logger
	clock *Clock
	rec   Recorder

	objects  map[ledger.ObjectID]*object
	history  map[versionKey]*object
	gasCoins map[ledger.Address]ledger.ObjectID

	epoch         uint64
	checkpointSeq uint64
	totalTxs      uint64

	protocolVersion uint64
	maxGas          uint64
	refGasPrice     uint64
	defaultGasPrice uint64

	randomStateID *ledger.ObjectID
	initialized   bool
}

// New creates an empty ledger with an optional write-through recorder.
func New(log *slog.Logger, rec Recorder) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		log:      log,
		clock:    NewClock(),
		rec:      rec,
		objects:  make(map[ledger.ObjectID]*object),
		history:  make(map[versionKey]*object),
		gasCoins: make(map[ledger.Address]ledger.ObjectID),
	}
}

// Initialize funds one gas coin per account at version 1 and fixes the
// protocol parameters for the run.
func (l *Ledger) Initialize(ctx context.Context, cfg ledger.InitConfig) (*ledger.InitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized {
		return nil, runerr.New(runerr.CodeMisplacedInit, "backend already initialized")
	}
	l.initialized = true

	l.protocolVersion = cfg.ProtocolVersion
	l.maxGas = cfg.MaxGas
	if l.maxGas == 0 {
		l.maxGas = DefaultGasBudget
	}
	l.refGasPrice = cfg.ReferenceGasPrice
	l.defaultGasPrice = cfg.DefaultGasPrice
	if l.defaultGasPrice == 0 {
		l.defaultGasPrice = 1
	}

	res := &ledger.InitResult{}
	for _, name := range cfg.Accounts {
		addr := accountAddress(name)
		coinID := genesisCoinID(name)
		coin := &object{
			id:      coinID,
			version: 1,
			owner:   ledger.Owner{Kind: ledger.OwnerAddress, Address: addr},
			kind:    coinObject,
			balance: l.maxGas,
			typ:     gasCoinType,
		}
		l.commitObject(ctx, coin)
		l.gasCoins[addr] = coinID
		res.Accounts = append(res.Accounts, ledger.AccountInit{
			Name: name, Address: addr, GasCoin: coinID,
		})
		l.log.Debug("funded account", "name", name, "address", addr.String())
	}
	return res, nil
}

// rtValue is one slot of a command's result vector during execution.
type rtValue struct {
	obj  *ledger.ObjectID
	pure []byte
}

// Execute runs one transaction against live state. Dry-run and
// dev-inspect transactions execute on a copy and leave state untouched.
func (l *Ledger) Execute(ctx context.Context, tx *ledger.Transaction) (*ledger.Effects, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		return nil, runerr.New(runerr.CodeAdapterExecutionFailed, "backend not initialized")
	}

	if tx.DryRun || tx.DevInspect {
		saved := l.snapshot()
		eff, err := l.execute(ctx, tx)
		l.restore(saved)
		return eff, err
	}
	return l.execute(ctx, tx)
}

type ledgerSnapshot struct {
	objects  map[ledger.ObjectID]*object
	history  map[versionKey]*object
	totalTxs uint64
	clockSeq uint64
}

func (l *Ledger) snapshot() ledgerSnapshot {
	s := ledgerSnapshot{
		objects:  make(map[ledger.ObjectID]*object, len(l.objects)),
		history:  make(map[versionKey]*object, len(l.history)),
		totalTxs: l.totalTxs,
		clockSeq: l.clock.Current(),
	}
	for id, o := range l.objects {
		s.objects[id] = o.clone()
	}
	for k, o := range l.history {
		s.history[k] = o
	}
	return s
}

func (l *Ledger) restore(s ledgerSnapshot) {
	l.objects = s.objects
	l.history = s.history
	l.totalTxs = s.totalTxs
	l.clock.mu.Lock()
	l.clock.seq = s.clockSeq
	l.clock.mu.Unlock()
}

func (l *Ledger) execute(ctx context.Context, tx *ledger.Transaction) (*ledger.Effects, error) {
	gasPrice := tx.GasPrice
	if gasPrice == 0 {
		gasPrice = l.defaultGasPrice
	}

	gasOwner := tx.Sender
	if tx.Sponsor != nil {
		gasOwner = *tx.Sponsor
	}
	gasID, err := l.pickGasCoin(tx, gasOwner)
	if err != nil {
		return nil, err
	}

	// Lamport version: every object written by this tx lands one past
	// the highest version among its inputs and the gas coin.
	lamport := l.objects[gasID].version
	for _, in := range tx.Inputs {
		if in.Object == nil {
			continue
		}
		if o, ok := l.objects[in.Object.ID]; ok && o.version > lamport {
			lamport = o.version
		}
	}
	lamport++

	st := &txState{
		ledger:  l,
		tx:      tx,
		gasID:   gasID,
		digest:  txDigest(l.clock.Next()),
		lamport: lamport,
		touched: make(map[ledger.ObjectID]bool),
	}

	for i, cmd := range tx.Commands {
		if err := st.runCommand(ctx, cmd); err != nil {
			return nil, fmt.Errorf("command %d (%s): %w", i, cmd.Kind, err)
		}
	}

	gas := ledger.GasSummary{
		ComputationCost: 1000 * gasPrice * uint64(max(1, len(tx.Commands))),
		StorageCost:     988_000 * uint64(len(st.created)+len(st.mutated(gasID))),
		StorageRebate:   988_000 * uint64(len(st.deleted)),
	}
	charge := gas.ComputationCost + gas.StorageCost
	refund := gas.StorageRebate
	gasCoin := l.objects[gasID]
	if gasCoin.balance+refund < charge {
		return nil, runerr.New(runerr.CodeAdapterExecutionFailed,
			"insufficient gas: balance %d, needed %d", gasCoin.balance, charge-refund)
	}
	gasCoin.balance = gasCoin.balance + refund - charge
	st.touch(gasID)

	// Commit: bump every surviving touched object to the lamport
	// version and snapshot it into history.
	for id := range st.touched {
		o, ok := l.objects[id]
		if !ok {
			continue
		}
		o.version = st.lamport
		l.commitObject(ctx, o)
	}
	l.totalTxs++

	eff := &ledger.Effects{
		Digest:  st.digest,
		Created: sortIDs(st.created),
		Mutated: sortIDs(st.mutated(gasID)),
		Deleted: sortIDs(st.deleted),
		Gas:     gas,
		Results: st.arities,
	}
	l.log.Debug("executed transaction",
		"digest", eff.Digest.String(),
		"created", len(eff.Created), "mutated", len(eff.Mutated), "deleted", len(eff.Deleted))
	return eff, nil
}

func (l *Ledger) pickGasCoin(tx *ledger.Transaction, owner ledger.Address) (ledger.ObjectID, error) {
	if tx.GasPayment != nil {
		o, ok := l.objects[*tx.GasPayment]
		if !ok || o.kind != coinObject {
			return ledger.ObjectID{}, runerr.New(runerr.CodeAdapterExecutionFailed,
				"gas payment %s is not a live coin", tx.GasPayment.Short())
		}
		return *tx.GasPayment, nil
	}
	id, ok := l.gasCoins[owner]
	if !ok {
		return ledger.ObjectID{}, runerr.New(runerr.CodeAdapterExecutionFailed,
			"no gas coin for sender %s", owner.String())
	}
	return id, nil
}

// commitObject snapshots the object into history and mirrors it to the
// recorder when one is attached.
func (l *Ledger) commitObject(ctx context.Context, o *object) {
	l.objects[o.id] = o
	l.history[versionKey{o.id, o.version}] = o.clone()
	if l.rec != nil {
		payload := []byte(fmt.Sprintf(`{"balance":%d,"kind":%d}`, o.balance, o.kind))
		if err := l.rec.RecordObject(ctx, o.id.String(), uint64(o.version), o.owner.String(), o.typ, payload); err != nil {
			l.log.Warn("object write-through failed", "id", o.id.Short(), "error", err)
		}
	}
}

// txState accumulates one transaction's execution.
type txState struct {
	ledger  *Ledger
	tx      *ledger.Transaction
	gasID   ledger.ObjectID
	digest  ledger.Digest
	lamport ledger.Version

	results [][]rtValue
	arities []int
	created []ledger.ObjectID
	deleted []ledger.ObjectID
	touched map[ledger.ObjectID]bool
	fresh   uint64
}

func (st *txState) touch(id ledger.ObjectID) { st.touched[id] = true }

// mutated is the touched set minus this tx's own creations, with the
// gas coin always included.
func (st *txState) mutated(gasID ledger.ObjectID) []ledger.ObjectID {
	createdSet := make(map[ledger.ObjectID]bool, len(st.created))
	for _, id := range st.created {
		createdSet[id] = true
	}
	out := []ledger.ObjectID{gasID}
	for id := range st.touched {
		if id != gasID && !createdSet[id] {
			out = append(out, id)
		}
	}
	return out
}

func (st *txState) newObjectID() ledger.ObjectID {
	id := freshObjectID(st.digest, st.fresh)
	st.fresh++
	return id
}

func (st *txState) resolveArg(a ledger.Argument) (rtValue, error) {
	switch a.Kind {
	case ledger.ArgGas:
		id := st.gasID
		return rtValue{obj: &id}, nil
	case ledger.ArgInput:
		if int(a.Input) >= len(st.tx.Inputs) {
			return rtValue{}, runerr.New(runerr.CodeAdapterExecutionFailed,
				"input %d out of range", a.Input)
		}
		in := st.tx.Inputs[a.Input]
		if in.Object != nil {
			id := in.Object.ID
			return rtValue{obj: &id}, nil
		}
		return rtValue{pure: in.Pure}, nil
	case ledger.ArgResult:
		vals := st.results[a.Command]
		if len(vals) != 1 {
			return rtValue{}, runerr.New(runerr.CodeAdapterExecutionFailed,
				"Result(%d) used on a command with %d results", a.Command, len(vals))
		}
		return vals[0], nil
	case ledger.ArgNestedResult:
		vals := st.results[a.Command]
		if int(a.NestedIndex) >= len(vals) {
			return rtValue{}, runerr.New(runerr.CodeAdapterExecutionFailed,
				"NestedResult(%d,%d) out of range", a.Command, a.NestedIndex)
		}
		return vals[a.NestedIndex], nil
	default:
		return rtValue{}, fmt.Errorf("unknown argument kind %d", a.Kind)
	}
}

func (st *txState) liveObject(v rtValue) (*object, error) {
	if v.obj == nil {
		return nil, runerr.New(runerr.CodeAdapterExecutionFailed, "expected an object argument")
	}
	o, ok := st.ledger.objects[*v.obj]
	if !ok {
		return nil, runerr.New(runerr.CodeAdapterExecutionFailed,
			"object %s does not exist", v.obj.Short())
	}
	return o, nil
}

func decodeU64(pure []byte) (uint64, error) {
	if len(pure) != 8 {
		return 0, runerr.New(runerr.CodeAdapterExecutionFailed,
			"expected a u64 amount, got %d bytes", len(pure))
	}
	return binary.LittleEndian.Uint64(pure), nil
}

func (st *txState) runCommand(ctx context.Context, cmd ledger.Command) error {
	switch cmd.Kind {
	case ledger.CmdSplitCoins:
		return st.splitCoins(cmd)
	case ledger.CmdMergeCoins:
		return st.mergeCoins(cmd)
	case ledger.CmdTransferObjects:
		return st.transferObjects(cmd)
	case ledger.CmdMakeMoveVec:
		return st.makeMoveVec(cmd)
	case ledger.CmdMoveCall:
		// No Move VM here: calls charge gas and produce nothing.
		st.results = append(st.results, nil)
		st.arities = append(st.arities, 0)
		return nil
	case ledger.CmdPublish:
		return st.publish(ctx, cmd)
	case ledger.CmdUpgrade:
		return st.upgrade(ctx, cmd)
	default:
		return fmt.Errorf("unknown command kind %d", cmd.Kind)
	}
}

func (st *txState) splitCoins(cmd ledger.Command) error {
	coinVal, err := st.resolveArg(cmd.Coin)
	if err != nil {
		return err
	}
	coin, err := st.liveObject(coinVal)
	if err != nil {
		return err
	}
	if coin.kind != coinObject {
		return runerr.New(runerr.CodeAdapterExecutionFailed,
			"SplitCoins target %s is not a coin", coin.id.Short())
	}

	owner := st.tx.Sender
	vals := make([]rtValue, 0, len(cmd.Args))
	for _, a := range cmd.Args {
		v, err := st.resolveArg(a)
		if err != nil {
			return err
		}
		amount, err := decodeU64(v.pure)
		if err != nil {
			return err
		}
		if coin.balance < amount {
			return runerr.New(runerr.CodeAdapterExecutionFailed,
				"split amount %d exceeds balance %d", amount, coin.balance)
		}
		coin.balance -= amount
		id := st.newObjectID()
		st.ledger.objects[id] = &object{
			id:      id,
			version: st.lamport,
			owner:   ledger.Owner{Kind: ledger.OwnerAddress, Address: owner},
			kind:    coinObject,
			balance: amount,
			typ:     coin.typ,
		}
		st.created = append(st.created, id)
		st.touch(id)
		vals = append(vals, rtValue{obj: &id})
	}
	st.touch(coin.id)
	st.results = append(st.results, vals)
	st.arities = append(st.arities, len(vals))
	return nil
}

func (st *txState) mergeCoins(cmd ledger.Command) error {
	destVal, err := st.resolveArg(cmd.Coin)
	if err != nil {
		return err
	}
	dest, err := st.liveObject(destVal)
	if err != nil {
		return err
	}
	if dest.kind != coinObject {
		return runerr.New(runerr.CodeAdapterExecutionFailed,
			"MergeCoins target %s is not a coin", dest.id.Short())
	}
	for _, a := range cmd.Args {
		v, err := st.resolveArg(a)
		if err != nil {
			return err
		}
		src, err := st.liveObject(v)
		if err != nil {
			return err
		}
		if src.kind != coinObject {
			return runerr.New(runerr.CodeAdapterExecutionFailed,
				"MergeCoins source %s is not a coin", src.id.Short())
		}
		if src.id == dest.id {
			return runerr.New(runerr.CodeAdapterExecutionFailed,
				"cannot merge coin %s into itself", src.id.Short())
		}
		dest.balance += src.balance
		delete(st.ledger.objects, src.id)
		delete(st.touched, src.id)
		st.deleted = append(st.deleted, src.id)
	}
	st.touch(dest.id)
	st.results = append(st.results, nil)
	st.arities = append(st.arities, 0)
	return nil
}

func (st *txState) transferObjects(cmd ledger.Command) error {
	recVal, err := st.resolveArg(cmd.Recipient)
	if err != nil {
		return err
	}
	if len(recVal.pure) != ledger.AddressLength {
		return runerr.New(runerr.CodeAdapterExecutionFailed,
			"TransferObjects recipient is not an address")
	}
	var recipient ledger.Address
	copy(recipient[:], recVal.pure)

	for _, a := range cmd.Args {
		v, err := st.resolveArg(a)
		if err != nil {
			return err
		}
		o, err := st.liveObject(v)
		if err != nil {
			return err
		}
		if o.owner.Kind == ledger.OwnerImmutable {
			return runerr.New(runerr.CodeAdapterExecutionFailed,
				"cannot transfer immutable object %s", o.id.Short())
		}
		o.owner = ledger.Owner{Kind: ledger.OwnerAddress, Address: recipient}
		st.touch(o.id)
	}
	st.results = append(st.results, nil)
	st.arities = append(st.arities, 0)
	return nil
}

func (st *txState) makeMoveVec(cmd ledger.Command) error {
	var buf bytes.Buffer
	buf.Write(ledger.AppendULEB128(nil, uint64(len(cmd.Args))))
	for _, a := range cmd.Args {
		v, err := st.resolveArg(a)
		if err != nil {
			return err
		}
		if v.obj != nil {
			return runerr.New(runerr.CodeAdapterExecutionFailed,
				"MakeMoveVec over objects is not supported")
		}
		buf.Write(v.pure)
	}
	st.results = append(st.results, []rtValue{{pure: buf.Bytes()}})
	st.arities = append(st.arities, 1)
	return nil
}

func (st *txState) publish(ctx context.Context, cmd ledger.Command) error {
	if len(cmd.Modules) == 0 {
		return runerr.New(runerr.CodeAdapterExecutionFailed, "publish with no modules")
	}
	pkgID := packageID(st.digest, bytes.Join(cmd.Modules, []byte{0}))
	st.ledger.commitObject(ctx, &object{
		id:      pkgID,
		version: 1,
		owner:   ledger.Owner{Kind: ledger.OwnerImmutable},
		kind:    packageObject,
		typ:     "package",
		modules: moduleNames(cmd.Modules),
	})
	st.created = append(st.created, pkgID)

	capID := st.newObjectID()
	st.ledger.objects[capID] = &object{
		id:      capID,
		version: st.lamport,
		owner:   ledger.Owner{Kind: ledger.OwnerAddress, Address: st.tx.Sender},
		kind:    plainObject,
		typ:     "0x2::package::UpgradeCap",
		fields: []ledger.Field{
			{Name: "id", Value: ledger.IDDatum(capID)},
			{Name: "package", Value: ledger.IDDatum(pkgID)},
		},
	}
	st.created = append(st.created, capID)
	st.touch(capID)

	id := capID
	st.results = append(st.results, []rtValue{{obj: &id}})
	st.arities = append(st.arities, 1)
	return nil
}

func (st *txState) upgrade(ctx context.Context, cmd ledger.Command) error {
	if len(cmd.Modules) == 0 {
		return runerr.New(runerr.CodeAdapterExecutionFailed, "upgrade with no modules")
	}
	if _, ok := st.ledger.objects[cmd.UpgradeTarget]; !ok {
		return runerr.New(runerr.CodeAdapterExecutionFailed,
			"upgrade target %s is not a published package", cmd.UpgradeTarget.Short())
	}
	if _, err := st.resolveArg(cmd.Ticket); err != nil {
		return err
	}
	pkgID := packageID(st.digest, bytes.Join(cmd.Modules, []byte{0}))
	st.ledger.commitObject(ctx, &object{
		id:      pkgID,
		version: 1,
		owner:   ledger.Owner{Kind: ledger.OwnerImmutable},
		kind:    packageObject,
		typ:     "package",
		modules: moduleNames(cmd.Modules),
	})
	st.created = append(st.created, pkgID)

	id := pkgID
	st.results = append(st.results, []rtValue{{obj: &id}})
	st.arities = append(st.arities, 1)
	return nil
}

// GetObject returns a view of one object, historical when version is
// given.
func (l *Ledger) GetObject(ctx context.Context, id ledger.ObjectID, version *ledger.Version) (*ledger.ObjectView, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var o *object
	if version != nil {
		o = l.history[versionKey{id, *version}]
	} else {
		o = l.objects[id]
	}
	if o == nil {
		return nil, runerr.New(runerr.CodeAdapterExecutionFailed,
			"object %s does not exist", id.Short())
	}
	return o.view(), nil
}

func (o *object) view() *ledger.ObjectView {
	v := &ledger.ObjectView{
		ID:      o.id,
		Version: o.version,
		Owner:   o.owner,
		Type:    o.typ,
	}
	switch o.kind {
	case coinObject:
		v.Fields = []ledger.Field{
			{Name: "id", Value: ledger.IDDatum(o.id)},
			{Name: "balance", Value: ledger.U64Datum(o.balance)},
		}
	case packageObject:
		mods := make(ledger.ListDatum, 0, len(o.modules))
		for _, m := range o.modules {
			mods = append(mods, ledger.StringDatum(m))
		}
		v.Fields = []ledger.Field{{Name: "modules", Value: mods}}
	default:
		v.Fields = append([]ledger.Field(nil), o.fields...)
	}
	return v
}

// AdvanceEpoch bumps the epoch count times. With createRandomState set
// it also creates the shared randomness object if absent.
func (l *Ledger) AdvanceEpoch(ctx context.Context, count uint64, createRandomState bool) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.epoch += count
	if createRandomState && l.randomStateID == nil {
		id := ledger.ObjectID(hashWithDomain(domainObject, []byte("random-state")))
		l.objects[id] = &object{
			id:      id,
			version: 1,
			owner:   ledger.Owner{Kind: ledger.OwnerShared, InitialSharedVersion: 1},
			kind:    plainObject,
			typ:     "0x2::random::Random",
			fields: []ledger.Field{
				{Name: "id", Value: ledger.IDDatum(id)},
				{Name: "round", Value: ledger.U64Datum(0)},
			},
		}
		l.history[versionKey{id, 1}] = l.objects[id].clone()
		l.randomStateID = &id
	}
	return l.epoch, nil
}

// CreateCheckpoint seals count checkpoints and returns the latest
// sequence number.
func (l *Ledger) CreateCheckpoint(ctx context.Context, count uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := uint64(0); i < count; i++ {
		l.checkpointSeq++
		if l.rec != nil {
			d := checkpointDigest(l.checkpointSeq, l.totalTxs)
			if err := l.rec.RecordCheckpoint(ctx, l.checkpointSeq, l.epoch, l.totalTxs, d.String()); err != nil {
				l.log.Warn("checkpoint write-through failed", "seq", l.checkpointSeq, "error", err)
			}
		}
	}
	return l.checkpointSeq, nil
}

// AdvanceClock moves simulated time forward.
func (l *Ledger) AdvanceClock(ctx context.Context, d time.Duration) error {
	if d < 0 {
		return runerr.New(runerr.CodeInvalidOption, "clock cannot move backwards")
	}
	l.clock.AdvanceNS(uint64(d.Nanoseconds()))
	return nil
}

// ConsensusCommitPrologue advances simulated time and commits the
// timestamp-bearing system transaction. No sender, no gas coin: the
// effects carry no object changes and a zero gas summary.
func (l *Ledger) ConsensusCommitPrologue(ctx context.Context, d time.Duration) (*ledger.Effects, error) {
	if d < 0 {
		return nil, runerr.New(runerr.CodeInvalidOption, "clock cannot move backwards")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.clock.AdvanceNS(uint64(d.Nanoseconds()))
	eff := &ledger.Effects{Digest: txDigest(l.clock.Next())}
	l.totalTxs++
	return eff, nil
}

// ViewCheckpoint summarizes the latest checkpoint.
func (l *Ledger) ViewCheckpoint(ctx context.Context) (*ledger.CheckpointSummary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return &ledger.CheckpointSummary{
		Epoch:                    l.epoch,
		SequenceNumber:           l.checkpointSeq,
		NetworkTotalTransactions: l.totalTxs,
		ContentDigest:            checkpointDigest(l.checkpointSeq, l.totalTxs),
	}, nil
}

// SetRandomState overrides the shared randomness object, creating it at
// initialVersion if needed.
func (l *Ledger) SetRandomState(ctx context.Context, round uint64, randomBytes []byte, initialVersion ledger.Version) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.randomStateID == nil {
		id := ledger.ObjectID(hashWithDomain(domainObject, []byte("random-state")))
		l.randomStateID = &id
	}
	o := &object{
		id:      *l.randomStateID,
		version: initialVersion,
		owner:   ledger.Owner{Kind: ledger.OwnerShared, InitialSharedVersion: initialVersion},
		kind:    plainObject,
		typ:     "0x2::random::Random",
		fields: []ledger.Field{
			{Name: "id", Value: ledger.IDDatum(*l.randomStateID)},
			{Name: "round", Value: ledger.U64Datum(round)},
			{Name: "bytes", Value: ledger.StringDatum(fmt.Sprintf("%x", randomBytes))},
		},
	}
	l.objects[o.id] = o
	l.history[versionKey{o.id, o.version}] = o.clone()
	return nil
}

// Disassemble renders a stable listing for print-bytecode tasks: one
// line per module declaration with the source's content digest.
func (l *Ledger) Disassemble(ctx context.Context, source string) (string, error) {
	names := moduleNames([][]byte{[]byte(source)})
	if len(names) == 0 {
		return "", runerr.New(runerr.CodeAdapterExecutionFailed,
			"no module declarations in source")
	}
	d := SourceDigest(source)
	var b bytes.Buffer
	for _, n := range names {
		fmt.Fprintf(&b, "module %s (source digest: %s)\n", n, d.String())
	}
	return b.String(), nil
}

func sortIDs(ids []ledger.ObjectID) []ledger.ObjectID {
	out := append([]ledger.ObjectID(nil), ids...)
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}
