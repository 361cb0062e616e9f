package game

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/ratrace/internal/refdata"
)

// Notifier receives room-level notifications after committed mutations.
// The gateway implements it to fan state out to connected members; rooms
// never talk to sockets directly.
type Notifier interface {
	RoomStateChanged(snapshot RoomSnapshot)
	TimerChanged(roomID string, state TimerState)
	GameFinished(summary GameSummary)
}

// RoomConfig fixes a room's rules at creation time.
type RoomConfig struct {
	Name                string
	MaxPlayers          int
	TurnBudgetSeconds   int
	GameDurationMinutes int // 0 means no duration limit
	InterestRatePercent int
	Win                 WinCondition
	Graduate            GraduateCondition
}

func (c *RoomConfig) applyDefaults() {
	if c.MaxPlayers <= 0 {
		c.MaxPlayers = 6
	}
	if c.TurnBudgetSeconds <= 0 {
		c.TurnBudgetSeconds = 120
	}
	if c.InterestRatePercent <= 0 {
		c.InterestRatePercent = 10
	}
	if c.Win == nil {
		c.Win = DefaultWinCondition
	}
	if c.Graduate == nil {
		c.Graduate = DefaultGraduateCondition
	}
}

// PlayerResult is one row of the end-of-game summary sent to the
// ratings service.
type PlayerResult struct {
	RoomID          string `json:"roomId"`
	PlayerID        string `json:"playerId"`
	Username        string `json:"username"`
	FinalScore      int    `json:"finalScore"`
	FinalNetWorth   int    `json:"finalNetWorth"`
	GameTimeSeconds int    `json:"gameTime"`
	DealsCompleted  int    `json:"dealsCompleted"`
	PassiveIncome   int    `json:"passiveIncome"`
	Won             bool   `json:"won"`
}

// GameSummary is the end-of-game report for one room.
type GameSummary struct {
	RoomID     string         `json:"roomId"`
	WinnerID   string         `json:"winnerId,omitempty"`
	WinnerName string         `json:"winnerName,omitempty"`
	Results    []PlayerResult `json:"results"`
}

// Room is one game session: an ordered set of seated players plus the
// ledger, dice, timer, decks and turn state machine that drive it.
//
// Every public method takes the room mutex for its full duration, so
// actions targeting the same room apply one at a time in arrival order
// with no interleaving. Timer ticks go through the same lock and can
// never race a purchase. Rooms share nothing mutable with each other.
type Room struct {
	ID string

	mu       sync.Mutex
	cfg      RoomConfig
	catalog  *refdata.Catalog
	logger   *log.Logger
	clock    quartz.Clock
	notifier Notifier

	ledger Ledger
	dice   *Dice

	players []*Player
	hostID  string
	phase   Phase

	currentTurn int
	stage       TurnStage
	lastRoll    *RollResult
	extraRolls  int
	splitUsed   bool

	pendingDeal    *refdata.DealCard
	pendingCharity bool
	lastMarket     *refdata.MarketCard

	smallDeals *Deck[refdata.DealCard]
	bigDeals   *Deck[refdata.DealCard]
	markets    *Deck[refdata.MarketCard]
	expenses   *Deck[refdata.ExpenseCard]

	timer          *TurnTimer
	elapsedSeconds int
	tickCancel     context.CancelFunc

	transactions []Transaction
	faulted      bool
	createdAt    time.Time
	finishedAt   time.Time
}

// NewRoom creates a room in phase Open.
func NewRoom(id string, cfg RoomConfig, catalog *refdata.Catalog, rng *rand.Rand, clock quartz.Clock, notifier Notifier, logger *log.Logger) *Room {
	cfg.applyDefaults()
	r := &Room{
		ID:        id,
		cfg:       cfg,
		catalog:   catalog,
		logger:    logger.WithPrefix("room").With("room", id),
		clock:     clock,
		notifier:  notifier,
		ledger:    Ledger{InterestRatePercent: cfg.InterestRatePercent},
		dice:      NewDice(rng),
		phase:     PhaseOpen,
		createdAt: clock.Now(),
	}
	r.timer = NewTurnTimer(r.onTimerExpired)
	r.smallDeals = NewDeck(catalog.SmallDeals, rng)
	r.bigDeals = NewDeck(catalog.BigDeals, rng)
	r.markets = NewDeck(catalog.Markets, rng)
	r.expenses = NewDeck(catalog.Expenses, rng)
	return r
}

// Name returns the room's display name.
func (r *Room) Name() string { return r.cfg.Name }

// Phase returns the current lifecycle phase.
func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// FinishedSince reports when the room entered PhaseFinished; zero while
// the game is still live. The registry uses it to reap stale rooms.
func (r *Room) FinishedSince() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finishedAt
}

// PlayerCount returns the number of seated players.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Join seats a new player. Only legal in phase Open. The first player to
// join becomes the host.
func (r *Room) Join(playerID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseOpen {
		return ErrInvalidPhase
	}
	if len(r.players) >= r.cfg.MaxPlayers {
		return ErrRoomFull
	}
	if r.findPlayer(playerID) != nil {
		return ErrAlreadyJoined
	}

	r.players = append(r.players, &Player{ID: playerID, Username: username})
	if r.hostID == "" {
		r.hostID = playerID
	}
	r.logger.Info("player joined", "player", username, "seats", len(r.players))

	// Seats filled: move to setup automatically.
	if len(r.players) == r.cfg.MaxPlayers {
		r.phase = PhaseSetup
		r.logger.Info("room full, entering setup")
	}
	r.broadcastState()
	return nil
}

// Leave removes a player. During a live game the seat is not vacated;
// the turn timer handles an absent player by expiring their turns.
func (r *Room) Leave(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseOpen && r.phase != PhaseSetup {
		// Mid-game leaves are ignored; see §cancellation in the design
		// notes. The player keeps their seat and times out.
		return nil
	}
	for i, p := range r.players {
		if p.ID == playerID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			if r.hostID == playerID && len(r.players) > 0 {
				r.hostID = r.players[0].ID
			}
			r.broadcastState()
			return nil
		}
	}
	return ErrUnknownPlayer
}

// StartSetup moves an Open room into Setup before it fills up.
// Host only.
func (r *Room) StartSetup(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if playerID != r.hostID {
		return ErrNotAuthorized
	}
	if r.phase != PhaseOpen {
		return ErrInvalidPhase
	}
	if len(r.players) < 2 {
		return ErrNotAllReady
	}
	r.phase = PhaseSetup
	r.broadcastState()
	return nil
}

// Ready records a player's profession and dream choice. When every
// seated player is ready the game starts.
func (r *Room) Ready(playerID, professionID, dreamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseSetup {
		return ErrInvalidPhase
	}
	p := r.findPlayer(playerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	prof, ok := r.catalog.ProfessionByID(professionID)
	if !ok {
		return ErrUnknownProfession
	}
	dream, ok := r.catalog.DreamByID(dreamID)
	if !ok {
		return ErrUnknownDream
	}

	p.applyProfession(prof)
	p.Dream = dream
	p.Ready = true
	r.logger.Info("player ready", "player", p.Username, "profession", prof.Name, "dream", dream.Name)

	if r.allReady() {
		r.startGame()
	}
	r.broadcastState()
	return nil
}

// Roll resolves the current player's dice roll and movement. split=true
// is the charity option: move by die1 only and bank one extra
// single-die roll for this turn.
func (r *Room) Roll(playerID string, split bool) (RollResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireTurn(playerID, StageAwaitingRoll); err != nil {
		return RollResult{}, err
	}
	p := r.players[r.currentTurn]
	if split && !p.Charity {
		return RollResult{}, ErrCharityRequired
	}

	roll := r.dice.Roll()
	movement := roll.Total
	if split {
		movement = roll.Die1
		if !r.splitUsed {
			// "One die twice": the first split roll banks one extra
			// single-die roll for this turn.
			r.extraRolls = 1
			r.splitUsed = true
		}
	}
	r.lastRoll = &roll
	r.stage = StageAwaitingAction
	r.movePlayer(p, movement)

	r.logger.Debug("rolled", "player", p.Username, "die1", roll.Die1, "die2", roll.Die2, "movement", movement)
	r.afterMutation()
	return roll, nil
}

// BuyDeal purchases the presented deal. useCredit=true finances the
// purchase with the round-lot plan; otherwise it is all cash.
func (r *Room) BuyDeal(playerID string, useCredit bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireTurn(playerID, StageAwaitingAction); err != nil {
		return err
	}
	if r.pendingDeal == nil {
		return ErrNoDealPresented
	}
	p := r.players[r.currentTurn]

	fin := Financing{FromBalance: r.pendingDeal.Cost}
	if useCredit {
		fin = PlanFinancing(p.Balance, r.pendingDeal.Cost)
	}
	tx, err := r.ledger.ApplyPurchase(p, *r.pendingDeal, fin)
	if err != nil {
		return err
	}
	r.commit(tx)
	r.logger.Info("deal bought", "player", p.Username, "card", r.pendingDeal.ID, "cash", fin.FromBalance, "credit", fin.FromCredit)
	r.pendingDeal = nil
	r.afterMutation()
	return nil
}

// SkipDeal declines the presented deal.
func (r *Room) SkipDeal(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireTurn(playerID, StageAwaitingAction); err != nil {
		return err
	}
	if r.pendingDeal == nil {
		return ErrNoDealPresented
	}
	r.logger.Info("deal skipped", "player", playerID, "card", r.pendingDeal.ID)
	r.pendingDeal = nil
	r.broadcastState()
	return nil
}

// Transfer moves money from the current player to another seat.
func (r *Room) Transfer(fromID, toID string, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireTurn(fromID, StageAwaitingAction); err != nil {
		return err
	}
	from := r.findPlayer(fromID)
	to := r.findPlayer(toID)
	if from == nil || to == nil {
		return ErrUnknownPlayer
	}
	tx, err := r.ledger.ApplyTransfer(from, to, amount)
	if err != nil {
		return err
	}
	r.commit(tx)
	r.afterMutation()
	return nil
}

// BuyCharity takes the charity upgrade offered by the current cell.
func (r *Room) BuyCharity(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireTurn(playerID, StageAwaitingAction); err != nil {
		return err
	}
	if !r.pendingCharity {
		return ErrNoDealPresented
	}
	p := r.players[r.currentTurn]
	r.commit(r.ledger.ApplyCharityPurchase(p))
	r.pendingCharity = false
	r.afterMutation()
	return nil
}

// EndTurn finishes the current player's turn. Legal once a roll has
// occurred. With a banked charity roll the player rolls again instead
// of passing the turn on.
func (r *Room) EndTurn(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseInProgress {
		return ErrInvalidPhase
	}
	if r.players[r.currentTurn].ID != playerID {
		return ErrNotYourTurn
	}
	if r.stage == StageAwaitingRoll {
		return ErrNoRollYet
	}
	r.completeTurn(false)
	return nil
}

// PauseTimer freezes the turn countdown. Host only; this authorization
// check is separate from turn ownership.
func (r *Room) PauseTimer(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if playerID != r.hostID {
		return ErrNotAuthorized
	}
	if r.phase != PhaseInProgress {
		return ErrInvalidPhase
	}
	r.timer.Pause()
	r.notifyTimer()
	return nil
}

// ResumeTimer continues a paused countdown. Host only.
func (r *Room) ResumeTimer(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if playerID != r.hostID {
		return ErrNotAuthorized
	}
	if r.phase != PhaseInProgress {
		return ErrInvalidPhase
	}
	r.timer.Resume()
	r.notifyTimer()
	return nil
}

// Transactions returns a copy of the committed transaction log.
func (r *Room) Transactions() []Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Transaction(nil), r.transactions...)
}

// Close stops the room's background ticking. Idempotent.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTicking()
}

// --- internals; all callers hold r.mu ---

func (r *Room) findPlayer(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) allReady() bool {
	for _, p := range r.players {
		if !p.Ready {
			return false
		}
	}
	return len(r.players) >= 2
}

// requireTurn validates phase, turn ownership and turn stage for a
// gameplay action. Rejections are typed and mutate nothing.
func (r *Room) requireTurn(playerID string, stage TurnStage) error {
	if r.phase == PhaseFinished {
		return ErrGameFinished
	}
	if r.phase != PhaseInProgress {
		return ErrInvalidPhase
	}
	if r.findPlayer(playerID) == nil {
		return ErrUnknownPlayer
	}
	if r.players[r.currentTurn].ID != playerID {
		return ErrNotYourTurn
	}
	if r.stage != stage {
		if stage == StageAwaitingAction && r.stage == StageAwaitingRoll {
			return ErrNoRollYet
		}
		return ErrInvalidPhase
	}
	return nil
}

func (r *Room) startGame() {
	r.phase = PhaseInProgress
	r.currentTurn = 0
	r.startTurn()
	r.startTicking()
	r.logger.Info("game started", "players", len(r.players))
}

func (r *Room) startTurn() {
	r.stage = StageAwaitingRoll
	r.lastRoll = nil
	r.extraRolls = 0
	r.splitUsed = false
	r.pendingDeal = nil
	r.pendingCharity = false
	r.lastMarket = nil
	r.timer.Start(r.cfg.TurnBudgetSeconds)
	r.notifyTimer()
}

// completeTurn ends the current turn. forced marks a timer expiry, which
// also cancels any banked charity rolls.
func (r *Room) completeTurn(forced bool) {
	r.pendingDeal = nil
	r.pendingCharity = false

	if !forced && r.extraRolls > 0 {
		r.extraRolls--
		r.stage = StageAwaitingRoll
		r.lastRoll = nil
		r.broadcastState()
		return
	}

	r.stage = StageTurnComplete
	r.currentTurn = (r.currentTurn + 1) % len(r.players)
	r.startTurn()
	r.broadcastState()
}

// movePlayer advances p along its track, accruing passive income on
// each completed lap, then resolves the landing cell.
func (r *Room) movePlayer(p *Player, movement int) {
	track := r.trackFor(p)
	next := p.Position + movement
	if next >= track.Length() {
		next -= track.Length()
		r.commit(r.ledger.AccruePassiveIncome(p))
		r.logger.Debug("lap completed", "player", p.Username, "cashflow", p.MonthlyCashflow())
	}
	p.Position = next
	r.resolveCell(p, track.CellAt(next))
}

func (r *Room) trackFor(p *Player) refdata.Track {
	if p.Track == BigCircle {
		return r.catalog.BigTrack
	}
	return r.catalog.SmallTrack
}

// resolveCell draws and surfaces whatever the landing cell dictates.
func (r *Room) resolveCell(p *Player, cell refdata.CellKind) {
	switch cell {
	case refdata.CellDeal:
		deck := r.smallDeals
		if p.Track == BigCircle {
			deck = r.bigDeals
		}
		if card, ok := deck.Draw(); ok {
			r.pendingDeal = &card
		}
	case refdata.CellMarket:
		if card, ok := r.markets.Draw(); ok {
			r.lastMarket = &card
		}
	case refdata.CellExpense:
		if card, ok := r.expenses.Draw(); ok {
			tx, err := r.ledger.ApplyExpense(p, card)
			if err != nil {
				// The player cannot cover the expense even with credit;
				// the cost is forgiven rather than bankrupting the seat.
				r.logger.Info("expense unpayable", "player", p.Username, "card", card.ID, "cost", card.Cost)
				return
			}
			r.commit(tx)
		}
	case refdata.CellCharity:
		r.pendingCharity = true
	case refdata.CellPayday:
		r.commit(r.ledger.AccruePassiveIncome(p))
	}
}

// commit appends a transaction to the room log.
func (r *Room) commit(tx Transaction) {
	r.transactions = append(r.transactions, tx)
}

// afterMutation runs the checks shared by every committed mutation:
// graduation, win condition, then a state broadcast.
func (r *Room) afterMutation() {
	for _, p := range r.players {
		if p.Track == SmallCircle && r.cfg.Graduate(p) {
			p.Track = BigCircle
			p.Position = 0
			r.logger.Info("player graduated to big circle", "player", p.Username)
		}
	}
	for _, p := range r.players {
		if r.cfg.Win(p) {
			r.finishGame(p)
			return
		}
	}
	r.broadcastState()
}

func (r *Room) finishGame(winner *Player) {
	if r.phase == PhaseFinished {
		return
	}
	r.phase = PhaseFinished
	r.finishedAt = r.clock.Now()
	r.timer.Stop()
	r.stopTicking()

	summary := GameSummary{RoomID: r.ID}
	if winner != nil {
		summary.WinnerID = winner.ID
		summary.WinnerName = winner.Username
	}
	for _, p := range r.players {
		summary.Results = append(summary.Results, PlayerResult{
			RoomID:          r.ID,
			PlayerID:        p.ID,
			Username:        p.Username,
			FinalScore:      p.NetWorth() + 12*p.MonthlyCashflow(),
			FinalNetWorth:   p.NetWorth(),
			GameTimeSeconds: r.elapsedSeconds,
			DealsCompleted:  p.DealsCompleted,
			PassiveIncome:   p.MonthlyCashflow(),
			Won:             winner != nil && p.ID == winner.ID,
		})
	}

	if winner != nil {
		r.logger.Info("game finished", "winner", winner.Username, "elapsed", r.elapsedSeconds)
	} else {
		r.logger.Info("game finished", "reason", "duration limit", "elapsed", r.elapsedSeconds)
	}
	r.broadcastState()
	if r.notifier != nil {
		r.notifier.GameFinished(summary)
	}
}

// fail marks the room fatally broken without affecting other rooms.
func (r *Room) fail(cause any) {
	r.faulted = true
	r.logger.Error("room faulted, forcing finish", "cause", fmt.Sprint(cause))
	r.finishGame(nil)
}

// --- timer plumbing ---

// startTicking drives the turn timer from the room clock. The tick
// handler takes the room mutex, so ticks serialize with player actions.
func (r *Room) startTicking() {
	ctx, cancel := context.WithCancel(context.Background())
	r.tickCancel = cancel
	r.clock.TickerFunc(ctx, time.Second, func() error {
		r.handleTick()
		return nil
	}, "room", r.ID)
}

func (r *Room) stopTicking() {
	if r.tickCancel != nil {
		r.tickCancel()
		r.tickCancel = nil
	}
}

func (r *Room) handleTick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() {
		if rec := recover(); rec != nil {
			r.fail(rec)
		}
	}()

	if r.phase != PhaseInProgress {
		return
	}
	r.elapsedSeconds++

	if limit := r.cfg.GameDurationMinutes * 60; limit > 0 && r.elapsedSeconds >= limit {
		r.finishGame(r.leader())
		return
	}

	r.timer.Tick()
	r.notifyTimer()
}

// onTimerExpired is invoked by the timer inside handleTick, so the room
// lock is already held. Committed transactions from this turn survive.
func (r *Room) onTimerExpired() {
	r.logger.Info("turn timer expired", "player", r.players[r.currentTurn].Username)
	r.completeTurn(true)
}

// leader is the player with the highest net worth, used to settle a
// duration-limit finish.
func (r *Room) leader() *Player {
	var best *Player
	for _, p := range r.players {
		if best == nil || p.NetWorth() > best.NetWorth() {
			best = p
		}
	}
	return best
}

func (r *Room) notifyTimer() {
	if r.notifier != nil {
		r.notifier.TimerChanged(r.ID, r.timer.State())
	}
}

func (r *Room) broadcastState() {
	if r.notifier != nil {
		r.notifier.RoomStateChanged(r.snapshotLocked())
	}
}
