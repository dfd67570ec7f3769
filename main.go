package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/goddpg/ddpg"
	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/environment/classiccontrol/pendulum"
	"github.com/samuelfneumann/goddpg/expreplay"
	"github.com/samuelfneumann/goddpg/initwfn"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/solver"
	"github.com/samuelfneumann/goddpg/tracker"
)

func main() {
	var seed int64 = 192382
	maxEpisodeLength := 200

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	// Create the environment
	bounds := []r1.Interval{
		{Min: -pendulum.AngleBound, Max: pendulum.AngleBound},
		{Min: -1.0, Max: 1.0},
	}
	starter, err := environment.NewUniformStarter(bounds, uint64(seed))
	if err != nil {
		logger.Fatal().Err(err).Msg("could not create starter")
	}
	task := pendulum.NewSwingUp(starter, maxEpisodeLength)
	env, _, err := pendulum.New(task)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not create environment")
	}

	// Create the agent configuration
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not create weight initializer")
	}
	batchSize := 64
	actorSolver, err := solver.NewDefaultAdam(0.0001, batchSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not create actor solver")
	}
	criticSolver, err := solver.NewDefaultAdam(0.001, batchSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not create critic solver")
	}

	config := ddpg.Config{
		ActorLayers: []int{64, 64},
		ActorBiases: []bool{true, true},
		ActorActivations: []*network.Activation{network.ReLU(),
			network.ReLU()},

		CriticLayers: []int{64, 64},
		CriticBiases: []bool{true, true},
		CriticActivations: []*network.Activation{network.ReLU(),
			network.ReLU()},

		InitWFn:      init,
		ActorSolver:  actorSolver,
		CriticSolver: criticSolver,

		ExpReplay: expreplay.Config{
			RemoveMethod:      expreplay.Fifo,
			SampleMethod:      expreplay.Uniform,
			RemoveSize:        1,
			SampleSize:        batchSize,
			MaxReplayCapacity: 100000,
			MinReplayCapacity: 1000,
		},

		DiscountFactor:   0.99,
		Polyak:           0.995,
		ActionNoiseScale: 0.1,
		StartSteps:       1000,
		StepsPerEpoch:    4000,
		Epochs:           25,
		MaxEpisodeLength: maxEpisodeLength,
		EvaluationSteps:  1000,
	}

	trackers := []tracker.Tracker{
		tracker.NewScalar("pendulum_data.bin"),
		tracker.NewProgress("episode length", config.TotalSteps()),
	}

	agent, err := ddpg.New(env, config, seed, logger, trackers...)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not create agent")
	}
	defer agent.Close()

	// Train until the step budget is exhausted or interrupted
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = agent.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("training failed")
	}

	for _, t := range trackers {
		if err := t.Save(); err != nil {
			logger.Error().Err(err).Msg("could not save tracked metrics")
		}
	}

	// Report the final evaluation from the saved metric data
	data, err := tracker.LoadData("pendulum_data.bin")
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load tracked metrics")
	}
	if evals := data["eval episode reward"]; len(evals) > 0 {
		last := evals[len(evals)-1]
		logger.Info().
			Int("step", last.Step).
			Float64("mean_eval_reward", last.Value).
			Msg("final evaluation")
	}
}
