// Package ddpg implements the Deep Deterministic Policy Gradient
// algorithm
package ddpg

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/goddpg/agent"
	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/expreplay"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/policy"
	"github.com/samuelfneumann/goddpg/spec"
	ts "github.com/samuelfneumann/goddpg/timestep"
	"github.com/samuelfneumann/goddpg/tracker"
)

// DDPG implements the Deep Deterministic Policy Gradient algorithm,
// an off-policy actor-critic algorithm for continuous action spaces.
//
// An actor network maps observations to actions and a critic network
// estimates the value of (observation, action) pairs. Transitions are
// stored in an experience replay buffer, and at the end of every
// episode one gradient update runs per environment step the episode
// took. Each update regresses the critic toward a bootstrapped target
// computed from slowly-tracking target copies of both networks, then
// ascends the actor along the critic's estimate of its actions, and
// finally smooths the target networks toward the live ones.
type DDPG struct {
	env environment.Environment

	// Behaviour policy for action selection. Its network weights are
	// synchronized with the training actor after every update.
	behaviour agent.NNPolicy

	// Training actor. It lives on the same computational graph as
	// criticClone so that the actor loss -Q(s, μ(s)) can differentiate
	// through the critic into the actor's parameters.
	trainActor network.NeuralNet
	policyVM   G.VM

	// criticStates feeds the observation batch to criticClone, which
	// reads its action inputs directly from trainActor's predictions
	criticStates *G.Node
	criticClone  network.NeuralNet

	// Training critic with its regression target nodes
	trainCritic network.NeuralNet
	criticVM    G.VM
	rewards     *G.Node
	discounts   *G.Node
	nextValues  *G.Node

	// Target networks, mutated only by polyak smoothing
	targetActor    network.NeuralNet
	targetActorVM  G.VM
	targetCritic   network.NeuralNet
	targetCriticVM G.VM

	actorSolver  G.Solver
	criticSolver G.Solver

	actorLossVal  G.Value
	criticLossVal G.Value

	replay expreplay.ExperienceReplayer

	// Uniform sampler over the action space for warm-up steps
	actionSampler *distmv.Uniform

	discount   float64
	polyak     float64
	batchSize  int
	featureDim int
	actionDims int

	startSteps       int
	stepsPerEpoch    int
	epochs           int
	maxEpisodeLength int
	evaluationSteps  int

	// Episode bookkeeping
	lastStep      ts.TimeStep
	episodeSteps  int
	episodeReward float64

	totalSteps    int // Environment steps taken during training
	gradientSteps int // Gradient updates applied so far
	updateBursts  int // End-of-episode update runs so far

	eval bool

	logger   zerolog.Logger
	trackers []tracker.Tracker
}

// New creates and returns a new DDPG agent acting in env. The seed
// determines the initial state of the agent's action samplers and
// replay buffer. Metrics are reported to the given trackers, and
// progress is logged to logger.
func New(env environment.Environment, config Config, seed int64,
	logger zerolog.Logger, trackers ...tracker.Tracker) (*DDPG, error) {
	// Ensure environment has continuous actions
	if env.ActionSpec().Cardinality != spec.Continuous {
		return nil, &ConfigError{
			Op:  "new",
			Err: fmt.Errorf("cannot use non-continuous actions"),
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Ensure the action bounds are well formed and construct the
	// warm-up sampler over them
	lowerBound := env.ActionSpec().LowerBound
	upperBound := env.ActionSpec().UpperBound
	actionBounds := make([]r1.Interval, lowerBound.Len())
	for i := range actionBounds {
		low, high := lowerBound.AtVec(i), upperBound.AtVec(i)
		if low > high {
			return nil, &ConfigError{
				Op: "new",
				Err: fmt.Errorf("malformed action bounds on dimension "+
					"%v \n\tlow(%v) \n\thigh(%v)", i, low, high),
			}
		}
		actionBounds[i] = r1.Interval{Min: low, Max: high}
	}
	actionSampler := distmv.NewUniform(actionBounds,
		rand.NewSource(uint64(seed)))

	if config.UseAccelerator {
		logger.Warn().Msg("accelerator requested but not compiled in, " +
			"running gradient computation on CPU")
	}

	batchSize := config.BatchSize()
	features := env.ObservationSpec().Shape.Len()
	actionDims := env.ActionSpec().Shape.Len()
	init := config.InitWFn.InitWFn()

	// Training critic and its regression target: the graph computes
	// MSE(r + γ(1-done)Q'(s', μ'(s')), Q(s, a)) where the masked
	// discounts γ(1-done) and the target values Q'(s', μ'(s')) are
	// fed in through input nodes.
	gCritic := G.NewGraph()
	trainCritic, err := network.NewMLP(features+actionDims, batchSize, 1,
		gCritic, config.CriticLayers, config.CriticBiases, init,
		config.CriticActivations, "Critic", "")
	if err != nil {
		return nil, fmt.Errorf("new: could not create critic: %v", err)
	}

	rewards := G.NewVector(gCritic, tensor.Float64, G.WithShape(batchSize),
		G.WithName("rewards"))
	discounts := G.NewVector(gCritic, tensor.Float64,
		G.WithShape(batchSize), G.WithName("discounts"))
	nextValues := G.NewVector(gCritic, tensor.Float64,
		G.WithShape(batchSize), G.WithName("nextStateValues"))

	updateTarget := G.Must(G.HadamardProd(nextValues, discounts))
	updateTarget = G.Must(G.Add(updateTarget, rewards))

	predicted := G.Must(G.Ravel(trainCritic.Prediction()))
	criticLosses := G.Must(G.Square(G.Must(G.Sub(updateTarget, predicted))))
	criticLoss := G.Must(G.Mean(criticLosses))

	var criticLossVal G.Value
	G.Read(criticLoss, &criticLossVal)

	if _, err := G.Grad(criticLoss, trainCritic.Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute critic gradient: %v",
			err)
	}
	criticVM := G.NewTapeMachine(gCritic,
		G.BindDualValues(trainCritic.Learnables()...))

	// Training actor on a composite graph: a clone of the critic
	// reads the actor's predictions as its action inputs, so the
	// actor loss -mean(Q(s, μ(s))) differentiates through the critic
	// into the actor's parameters only.
	gPolicy := G.NewGraph()
	trainActor, err := network.NewMLP(features, batchSize, actionDims,
		gPolicy, config.ActorLayers, config.ActorBiases, init,
		config.ActorActivations, "Actor", "")
	if err != nil {
		return nil, fmt.Errorf("new: could not create actor: %v", err)
	}

	criticStates := G.NewMatrix(gPolicy, tensor.Float64,
		G.WithShape(batchSize, features), G.WithName("CriticStates"))
	criticClone, err := trainCritic.CloneWithInputs(1,
		[]*G.Node{criticStates, trainActor.Prediction()}, gPolicy)
	if err != nil {
		return nil, fmt.Errorf("new: could not clone critic onto the "+
			"actor's graph: %v", err)
	}

	actorLoss := G.Must(G.Neg(G.Must(G.Mean(criticClone.Prediction()))))

	var actorLossVal G.Value
	G.Read(actorLoss, &actorLossVal)

	if _, err := G.Grad(actorLoss, trainActor.Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute actor gradient: %v",
			err)
	}
	policyVM := G.NewTapeMachine(gPolicy,
		G.BindDualValues(trainActor.Learnables()...))

	// Target networks start as exact copies of the live networks and
	// own their own weight tensors
	targetActor, err := trainActor.Clone()
	if err != nil {
		return nil, fmt.Errorf("new: could not create target actor: %v", err)
	}
	if err := targetActor.Set(trainActor); err != nil {
		return nil, fmt.Errorf("new: could not initialize target actor: %v",
			err)
	}
	targetActorVM := G.NewTapeMachine(targetActor.Graph())

	targetCritic, err := trainCritic.Clone()
	if err != nil {
		return nil, fmt.Errorf("new: could not create target critic: %v",
			err)
	}
	if err := targetCritic.Set(trainCritic); err != nil {
		return nil, fmt.Errorf("new: could not initialize target "+
			"critic: %v", err)
	}
	targetCriticVM := G.NewTapeMachine(targetCritic.Graph())

	// Behaviour policy for stepwise action selection, sharing the
	// training actor's weights
	behaviour, err := policy.NewDeterministicMLP(env, 1, G.NewGraph(),
		config.ActorLayers, config.ActorBiases, config.ActorActivations,
		init, config.ActionNoiseScale, uint64(seed))
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour "+
			"policy: %v", err)
	}
	if err := behaviour.Network().Set(trainActor); err != nil {
		return nil, fmt.Errorf("new: could not initialize behaviour "+
			"policy: %v", err)
	}

	replay, err := config.ExpReplay.Create(features, actionDims, seed)
	if err != nil {
		return nil, &ConfigError{
			Op: "new",
			Err: fmt.Errorf("could not create experience replay "+
				"buffer: %v", err),
		}
	}

	return &DDPG{
		env: env,

		behaviour: behaviour,

		trainActor:   trainActor,
		policyVM:     policyVM,
		criticStates: criticStates,
		criticClone:  criticClone,

		trainCritic: trainCritic,
		criticVM:    criticVM,
		rewards:     rewards,
		discounts:   discounts,
		nextValues:  nextValues,

		targetActor:    targetActor,
		targetActorVM:  targetActorVM,
		targetCritic:   targetCritic,
		targetCriticVM: targetCriticVM,

		actorSolver:  config.ActorSolver,
		criticSolver: config.CriticSolver,

		actorLossVal:  actorLossVal,
		criticLossVal: criticLossVal,

		replay:        replay,
		actionSampler: actionSampler,

		discount:   config.DiscountFactor,
		polyak:     config.Polyak,
		batchSize:  batchSize,
		featureDim: features,
		actionDims: actionDims,

		startSteps:       config.StartSteps,
		stepsPerEpoch:    config.StepsPerEpoch,
		epochs:           config.Epochs,
		maxEpisodeLength: config.MaxEpisodeLength,
		evaluationSteps:  config.EvaluationSteps,

		logger:   logger,
		trackers: trackers,
	}, nil
}

// ObserveFirst observes and records the first episodic timestep
func (d *DDPG) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		d.logger.Warn().Int("timestep", t.Number).
			Msg("observeFirst called on a non-first timestep")
	}

	d.lastStep = t
	d.episodeSteps = 0
	d.episodeReward = 0
	return nil
}

// Observe records that taking action led to nextStep, adding the
// resulting transition to the replay buffer
func (d *DDPG) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	transition := ts.NewTransition(d.lastStep, action, nextStep)
	if err := d.replay.Add(transition); err != nil {
		return &FatalError{
			Op:  "observe",
			Err: fmt.Errorf("could not store transition: %v", err),
		}
	}

	d.lastStep = nextStep
	d.episodeSteps++
	d.episodeReward += nextStep.Reward
	return nil
}

// Step performs a single gradient update: the critic descends the
// mean squared error to its bootstrapped regression target, the actor
// ascends the just-updated critic's value of its own actions, and the
// target networks are smoothed toward the live ones.
//
// If the replay buffer holds fewer samples than the batch size, the
// sampling error is returned and no parameters change. Callers decide
// whether to defer the update or fail.
func (d *DDPG) Step() error {
	states, actions, rewards, dones, nextStates, err := d.replay.Sample()
	if err != nil {
		return err
	}

	// Next actions μ'(s') from the target actor
	if err := d.targetActor.SetInput(nextStates); err != nil {
		return &FatalError{Op: "step", Err: err}
	}
	if err := d.targetActorVM.RunAll(); err != nil {
		return &FatalError{
			Op:  "step",
			Err: fmt.Errorf("could not run target actor: %v", err),
		}
	}
	nextActions := make([]float64, d.batchSize*d.actionDims)
	copy(nextActions, d.targetActor.Output().Data().([]float64))
	d.targetActorVM.Reset()

	// Next state-action values Q'(s', μ'(s')) from the target critic
	err = d.targetCritic.SetInput(concatStateAction(nextStates, nextActions,
		d.featureDim, d.actionDims, d.batchSize))
	if err != nil {
		return &FatalError{Op: "step", Err: err}
	}
	if err := d.targetCriticVM.RunAll(); err != nil {
		return &FatalError{
			Op:  "step",
			Err: fmt.Errorf("could not run target critic: %v", err),
		}
	}
	nextValues := make([]float64, d.batchSize)
	copy(nextValues, d.targetCritic.Output().Data().([]float64))
	d.targetCriticVM.Reset()

	// Terminal transitions must not bootstrap, so their discount is
	// masked to 0 and their regression target is exactly the reward
	maskedDiscounts := make([]float64, d.batchSize)
	for i := range maskedDiscounts {
		maskedDiscounts[i] = d.discount * (1.0 - dones[i])
	}

	err = G.Let(d.rewards, tensor.New(tensor.WithBacking(rewards),
		tensor.WithShape(d.batchSize)))
	if err != nil {
		return &FatalError{Op: "step", Err: err}
	}
	err = G.Let(d.discounts, tensor.New(tensor.WithBacking(maskedDiscounts),
		tensor.WithShape(d.batchSize)))
	if err != nil {
		return &FatalError{Op: "step", Err: err}
	}
	err = G.Let(d.nextValues, tensor.New(tensor.WithBacking(nextValues),
		tensor.WithShape(d.batchSize)))
	if err != nil {
		return &FatalError{Op: "step", Err: err}
	}

	// Critic update on the stored (s, a) pairs
	err = d.trainCritic.SetInput(concatStateAction(states, actions,
		d.featureDim, d.actionDims, d.batchSize))
	if err != nil {
		return &FatalError{Op: "step", Err: err}
	}
	if err := d.criticVM.RunAll(); err != nil {
		return &FatalError{
			Op:  "step",
			Err: fmt.Errorf("could not run critic update: %v", err),
		}
	}

	criticLoss := d.criticLossVal.Data().(float64)
	if math.IsNaN(criticLoss) || math.IsInf(criticLoss, 0) {
		return d.failUpdate("step",
			fmt.Errorf("critic loss is not finite: %v", criticLoss))
	}

	if err := d.criticSolver.Step(d.trainCritic.Model()); err != nil {
		return &FatalError{
			Op:  "step",
			Err: fmt.Errorf("could not adapt critic weights: %v", err),
		}
	}
	d.criticVM.Reset()

	// Actor update, evaluated with the critic weights that the
	// critic update just produced
	if err := d.criticClone.Set(d.trainCritic); err != nil {
		return &FatalError{Op: "step", Err: err}
	}
	stateTensor := tensor.New(tensor.WithBacking(states),
		tensor.WithShape(d.batchSize, d.featureDim))
	if err := G.Let(d.criticStates, stateTensor); err != nil {
		return &FatalError{Op: "step", Err: err}
	}
	if err := d.trainActor.SetInput(states); err != nil {
		return &FatalError{Op: "step", Err: err}
	}
	if err := d.policyVM.RunAll(); err != nil {
		return &FatalError{
			Op:  "step",
			Err: fmt.Errorf("could not run actor update: %v", err),
		}
	}

	actorLoss := d.actorLossVal.Data().(float64)
	if math.IsNaN(actorLoss) || math.IsInf(actorLoss, 0) {
		return d.failUpdate("step",
			fmt.Errorf("actor loss is not finite: %v", actorLoss))
	}

	if err := d.actorSolver.Step(d.trainActor.Model()); err != nil {
		return &FatalError{
			Op:  "step",
			Err: fmt.Errorf("could not adapt actor weights: %v", err),
		}
	}
	d.policyVM.Reset()

	d.gradientSteps++
	d.record("critic loss", d.gradientSteps, criticLoss)
	d.record("actor loss", d.gradientSteps, actorLoss)

	// Target networks track the live networks through smoothing only
	if err := d.syncTargets(); err != nil {
		return &FatalError{Op: "step", Err: err}
	}

	// The behaviour policy selects actions with the latest weights
	if err := d.behaviour.Network().Set(d.trainActor); err != nil {
		return &FatalError{
			Op:  "step",
			Err: fmt.Errorf("could not synchronize behaviour policy: %v",
				err),
		}
	}

	return nil
}

// EndEpisode performs cleanup at the end of an episode, running one
// gradient update per environment step the episode took. Updates are
// deferred while the replay buffer holds fewer samples than the batch
// size.
func (d *DDPG) EndEpisode() error {
	d.updateBursts++

	for i := 0; i < d.episodeSteps; i++ {
		err := d.Step()
		if expreplay.IsInsufficientSamples(err) ||
			expreplay.IsEmptyBuffer(err) {
			d.logger.Debug().
				Int("stored", d.replay.Capacity()).
				Int("batch_size", d.batchSize).
				Msg("deferring updates until the replay buffer fills")
			break
		}
		if err != nil {
			return err
		}
	}

	d.record("episode reward", d.totalSteps, d.episodeReward)
	d.record("episode length", d.totalSteps, float64(d.episodeSteps))
	d.logger.Debug().
		Int("steps", d.episodeSteps).
		Float64("reward", d.episodeReward).
		Msg("episode finished")

	d.episodeSteps = 0
	d.episodeReward = 0
	return nil
}

// SelectAction returns an action for the observation of t. During the
// warm-up period of training, actions are sampled uniformly at random
// from the action space; afterwards the behaviour policy selects them.
func (d *DDPG) SelectAction(t ts.TimeStep) *mat.VecDense {
	if !d.eval && d.totalSteps < d.startSteps {
		return mat.NewVecDense(d.actionDims, d.actionSampler.Rand(nil))
	}
	return d.behaviour.SelectAction(t)
}

// Eval sets the agent into evaluation mode, disabling exploration
func (d *DDPG) Eval() {
	d.eval = true
	d.behaviour.Eval()
}

// Train sets the agent into training mode
func (d *DDPG) Train() {
	d.eval = false
	d.behaviour.Train()
}

// IsEval returns whether the agent is in evaluation mode
func (d *DDPG) IsEval() bool {
	return d.eval
}

// Run trains the agent for the configured number of epochs. Each
// epoch takes steps-per-epoch iterations: all but the last interact
// with the environment, and the last runs an evaluation. Completed
// episodes trigger update bursts; an episode interrupted by an
// evaluation is abandoned, keeping its stored transitions.
//
// Run stops early when ctx is cancelled. Updates never straddle an
// iteration, so stopping cannot leave the target networks
// desynchronized from an unfinished update.
func (d *DDPG) Run(ctx context.Context) error {
	d.Train()
	startTime := time.Now()

	totalSteps := d.epochs * d.stepsPerEpoch
	d.logger.Info().
		Int("epochs", d.epochs).
		Int("steps_per_epoch", d.stepsPerEpoch).
		Int("total_steps", totalSteps).
		Int("batch_size", d.batchSize).
		Float64("discount", d.discount).
		Float64("polyak", d.polyak).
		Msg("starting training")

	step, err := d.env.Reset()
	if err != nil {
		return &FatalError{
			Op:  "run",
			Err: fmt.Errorf("could not reset environment: %v", err),
		}
	}
	if err := d.ObserveFirst(step); err != nil {
		return err
	}

	for i := 1; i <= totalSteps; i++ {
		select {
		case <-ctx.Done():
			d.logger.Info().Int("step", i).Msg("training stopped early")
			return ctx.Err()
		default:
		}

		// The last iteration of every epoch evaluates the policy
		// instead of acting
		if i%d.stepsPerEpoch == 0 {
			meanReward, meanLength, err := d.Evaluate()
			if err != nil {
				return err
			}
			d.record("eval episode reward", i, meanReward)
			d.record("eval episode length", i, meanLength)
			d.logger.Info().
				Int("epoch", i/d.stepsPerEpoch).
				Float64("mean_eval_reward", meanReward).
				Float64("mean_eval_length", meanLength).
				Msg("epoch finished")

			step, err = d.env.Reset()
			if err != nil {
				return &FatalError{
					Op:  "run",
					Err: fmt.Errorf("could not reset environment: %v", err),
				}
			}
			if err := d.ObserveFirst(step); err != nil {
				return err
			}
			continue
		}

		action := d.SelectAction(step)
		next, done, err := d.env.Step(action)
		if err != nil {
			return &FatalError{
				Op:  "run",
				Err: fmt.Errorf("could not step environment: %v", err),
			}
		}
		if err := d.Observe(action, next); err != nil {
			return err
		}
		d.totalSteps++

		if done || d.episodeSteps >= d.maxEpisodeLength {
			if err := d.EndEpisode(); err != nil {
				return err
			}

			step, err = d.env.Reset()
			if err != nil {
				return &FatalError{
					Op:  "run",
					Err: fmt.Errorf("could not reset environment: %v", err),
				}
			}
			if err := d.ObserveFirst(step); err != nil {
				return err
			}
		} else {
			step = next
		}
	}

	d.logger.Info().
		Int("environment_steps", d.totalSteps).
		Int("gradient_updates", d.gradientSteps).
		Dur("elapsed", time.Since(startTime)).
		Msg("training finished")
	return nil
}

// Evaluate runs the agent greedily for the configured evaluation step
// budget and returns the mean reward and mean length of all completed
// evaluation episodes. Parameters are left unchanged, and the agent is
// restored to its previous mode afterwards.
func (d *DDPG) Evaluate() (float64, float64, error) {
	wasEval := d.eval
	d.Eval()
	defer func() {
		if !wasEval {
			d.Train()
		}
	}()

	step, err := d.env.Reset()
	if err != nil {
		return 0, 0, &FatalError{
			Op:  "evaluate",
			Err: fmt.Errorf("could not reset environment: %v", err),
		}
	}

	var rewards, lengths []float64
	var episodeReward float64
	var episodeLength int

	for i := 0; i < d.evaluationSteps; i++ {
		action := d.SelectAction(step)
		next, done, err := d.env.Step(action)
		if err != nil {
			return 0, 0, &FatalError{
				Op:  "evaluate",
				Err: fmt.Errorf("could not step environment: %v", err),
			}
		}

		episodeReward += next.Reward
		episodeLength++

		if done || episodeLength >= d.maxEpisodeLength {
			rewards = append(rewards, episodeReward)
			lengths = append(lengths, float64(episodeLength))
			episodeReward = 0
			episodeLength = 0

			step, err = d.env.Reset()
			if err != nil {
				return 0, 0, &FatalError{
					Op:  "evaluate",
					Err: fmt.Errorf("could not reset environment: %v", err),
				}
			}
		} else {
			step = next
		}
	}

	if len(rewards) == 0 {
		d.logger.Warn().
			Int("evaluation_steps", d.evaluationSteps).
			Msg("no evaluation episode completed within the step budget")
		return 0, 0, nil
	}

	return stat.Mean(rewards, nil), stat.Mean(lengths, nil), nil
}

// Close cleans up the agent's virtual machines
func (d *DDPG) Close() error {
	var firstErr error
	for _, vm := range []G.VM{d.policyVM, d.criticVM, d.targetActorVM,
		d.targetCriticVM} {
		if err := vm.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := d.behaviour.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// syncTargets smooths both target networks toward the live networks
func (d *DDPG) syncTargets() error {
	if err := d.targetCritic.Polyak(d.trainCritic, d.polyak); err != nil {
		return fmt.Errorf("syncTargets: could not smooth target "+
			"critic: %v", err)
	}
	if err := d.targetActor.Polyak(d.trainActor, d.polyak); err != nil {
		return fmt.Errorf("syncTargets: could not smooth target "+
			"actor: %v", err)
	}
	return nil
}

// failUpdate aborts an update after an unrecoverable error. The
// target networks are still smoothed so that stopping never leaves
// them desynchronized from an in-flight update.
func (d *DDPG) failUpdate(op string, err error) error {
	if syncErr := d.syncTargets(); syncErr != nil {
		d.logger.Error().Err(syncErr).
			Msg("could not synchronize target networks while aborting")
	}
	return &FatalError{Op: op, Err: err}
}

// record reports a metric value to all trackers. Metric emission is
// fire-and-forget: a panicking tracker is logged and never interrupts
// training.
func (d *DDPG) record(metric string, step int, value float64) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Str("metric", metric).
				Interface("panic", r).
				Msg("metric emission failed")
		}
	}()

	for _, t := range d.trackers {
		t.Track(metric, step, value)
	}
}

// concatStateAction interleaves a state batch and an action batch
// into rows of (state, action) features
func concatStateAction(states, actions []float64, features, actionDims,
	batch int) []float64 {
	rowLength := features + actionDims
	out := make([]float64, batch*rowLength)
	for i := 0; i < batch; i++ {
		copy(out[i*rowLength:], states[i*features:(i+1)*features])
		copy(out[i*rowLength+features:],
			actions[i*actionDims:(i+1)*actionDims])
	}
	return out
}
