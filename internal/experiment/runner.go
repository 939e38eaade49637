// Package experiment turns validated configuration records into training
// runs: one run per seed, seeds of a record running concurrently, with
// per-record aggregation of the evaluation metrics.
package experiment

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"path/filepath"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/bayne-ml/bayne/internal/config"
	"github.com/bayne-ml/bayne/internal/dataset"
	"github.com/bayne-ml/bayne/internal/nn"
	"github.com/bayne-ml/bayne/internal/optim"
)

// DefaultEvalSamples is the number of stochastic forward passes used to
// estimate the predictive distribution of dropout/bbb/mmd networks.
const DefaultEvalSamples = 100

// Options control the runner.
type Options struct {
	Workers     int       // concurrent seed runs per record (default 1)
	EvalSamples int       // predictive samples at evaluation (default DefaultEvalSamples)
	Out         io.Writer // progress output; nil silences it
}

func (o Options) workers() int {
	if o.Workers < 1 {
		return 1
	}
	return o.Workers
}

func (o Options) evalSamples() int {
	if o.EvalSamples < 1 {
		return DefaultEvalSamples
	}
	return o.EvalSamples
}

func (o Options) out() io.Writer {
	if o.Out == nil {
		return io.Discard
	}
	return o.Out
}

// RunResult holds the metrics of a single seed's run.
type RunResult struct {
	Seed           int64   `json:"seed"`
	TrainRMSE      float64 `json:"train_rmse"`
	TestRMSE       float64 `json:"test_rmse"`
	TestNLL        float64 `json:"test_nll"`
	Sigma          float64 `json:"sigma"`
	GridPredStd    float64 `json:"grid_pred_std"`
	FinalLoss      float64 `json:"final_loss"`
	Loaded         bool    `json:"loaded"`
	CheckpointPath string  `json:"checkpoint_path,omitempty"`
}

// Summary aggregates a record's runs across its seeds.
type Summary struct {
	ExpName     string      `json:"exp_name"`
	Label       string      `json:"label,omitempty"`
	NetworkType string      `json:"network_type"`
	Runs        []RunResult `json:"runs"`

	TestRMSEMean float64 `json:"test_rmse_mean"`
	TestRMSEStd  float64 `json:"test_rmse_std"`
	TestNLLMean  float64 `json:"test_nll_mean"`
}

// Run executes every record of the experiment file and returns one
// summary per record. Records run sequentially; the seeds within a record
// run concurrently up to opts.Workers.
func Run(ctx context.Context, exps []config.Experiment, opts Options) ([]Summary, error) {
	summaries := make([]Summary, 0, len(exps))
	for i := range exps {
		s, err := runRecord(ctx, &exps[i], opts)
		if err != nil {
			return summaries, fmt.Errorf("experiment %q: %w", exps[i].ExpName, err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func runRecord(ctx context.Context, exp *config.Experiment, opts Options) (Summary, error) {
	fmt.Fprintf(opts.out(), "=== %s (%s) topology=%s seeds=%v\n",
		exp.ExpName, exp.NetworkType, exp.Topology, exp.Seeds)
	if exp.UseCUDA {
		fmt.Fprintf(opts.out(), "use_cuda requested for %s; running on cpu\n", exp.ExpName)
	}

	results := make([]RunResult, len(exp.Seeds))
	errs := make([]error, len(exp.Seeds))

	var wg sync.WaitGroup
	sem := make(chan struct{}, opts.workers())
	for i, seed := range exp.Seeds {
		wg.Add(1)
		go func(i int, seed int64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i], errs[i] = runSeed(ctx, exp, seed, opts)
		}(i, seed)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return Summary{}, err
		}
	}

	s := Summary{
		ExpName:     exp.ExpName,
		Label:       exp.Label,
		NetworkType: exp.NetworkType,
		Runs:        results,
	}
	rmses := make([]float64, len(results))
	nlls := make([]float64, len(results))
	for i, r := range results {
		rmses[i] = r.TestRMSE
		nlls[i] = r.TestNLL
	}
	s.TestRMSEMean, s.TestRMSEStd = stat.MeanStdDev(rmses, nil)
	s.TestNLLMean = stat.Mean(nlls, nil)

	fmt.Fprintf(opts.out(), "--- %s: test rmse %.4f ± %.4f, test nll %.2f\n",
		exp.ExpName, s.TestRMSEMean, s.TestRMSEStd, s.TestNLLMean)
	return s, nil
}

func runSeed(ctx context.Context, exp *config.Experiment, seed int64, opts Options) (RunResult, error) {
	rng := rand.New(rand.NewSource(seed))

	train, test, err := dataset.Generate(exp, rng)
	if err != nil {
		return RunResult{}, err
	}
	model, err := nn.NewRegression(exp, rng)
	if err != nil {
		return RunResult{}, err
	}

	res := RunResult{Seed: seed}
	if exp.Save || exp.Load {
		res.CheckpointPath = CheckpointPath(exp, seed)
	}

	if exp.Load {
		ckpt, err := nn.LoadCheckpoint(res.CheckpointPath)
		if err != nil {
			return RunResult{}, fmt.Errorf("seed %d: %w", seed, err)
		}
		if err := ckpt.Restore(model.Parameters()); err != nil {
			return RunResult{}, fmt.Errorf("seed %d: %w", seed, err)
		}
		res.Loaded = true
		res.FinalLoss = ckpt.Loss
	} else {
		loss, err := trainModel(ctx, exp, model, train, rng, opts)
		if err != nil {
			return RunResult{}, fmt.Errorf("seed %d: %w", seed, err)
		}
		res.FinalLoss = loss

		if exp.Save {
			ckpt := &nn.Checkpoint{
				ExpName:     exp.ExpName,
				NetworkType: exp.NetworkType,
				Seed:        seed,
				Epoch:       exp.Epochs,
				Loss:        loss,
				CreatedAt:   time.Now(),
				Params:      nn.Snapshot(model.Parameters()),
			}
			if err := ckpt.Save(res.CheckpointPath); err != nil {
				return RunResult{}, fmt.Errorf("seed %d: %w", seed, err)
			}
		}
	}

	evaluate(exp, model, train, test, opts, &res)
	return res, nil
}

// trainModel runs the record's training loop and returns the mean
// per-sample loss of the final epoch.
func trainModel(ctx context.Context, exp *config.Experiment, model *nn.Regression, train *dataset.Set, rng *rand.Rand, opts Options) (float64, error) {
	opt, err := optim.New(exp.Optimizer, model.Parameters(), exp.LR)
	if err != nil {
		return 0, err
	}

	batchSize := exp.BatchSize
	if batchSize == 0 {
		batchSize = 64
	}
	numBatches := (train.Len() + batchSize - 1) / batchSize
	divScale := divergenceScale(exp, numBatches)

	var epochLoss float64
	for epoch := 0; epoch < exp.Epochs; epoch++ {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		epochLoss = 0
		for _, b := range train.Batches(batchSize, rng) {
			opt.ZeroGrad()

			pred := model.Forward(nn.InputMatrix(b.X))
			nll, dPred, dLogSigma := nn.GaussianNLL(pred, b.Y, model.Sigma())
			model.Backward(dPred)
			model.AddNoiseGrad(dLogSigma)
			div := model.Divergence(divScale)

			opt.Step()
			epochLoss += nll + divScale*div
		}
	}
	return epochLoss / float64(train.Len()), nil
}

// divergenceScale returns the weight of the variational penalty. The kl
// weight defaults to 1/numBatches so that one pass over the data applies
// the full KL once; the mmd weight defaults to 1.
func divergenceScale(exp *config.Experiment, numBatches int) float64 {
	switch exp.NetworkType {
	case config.NetworkBBB:
		return exp.LossWeight("kl", 1/float64(numBatches))
	case config.NetworkMMD:
		return exp.LossWeight("mmd", 1)
	default:
		return 0
	}
}

func evaluate(exp *config.Experiment, model *nn.Regression, train, test *dataset.Set, opts Options, res *RunResult) {
	samples := opts.evalSamples()
	if exp.NetworkType == config.NetworkANN {
		samples = 1
	}

	trainMean, _ := model.Sample(train.X, samples)
	res.TrainRMSE = nn.RMSE(trainMean, train.Y)

	testMean, _ := model.Sample(test.X, samples)
	res.TestRMSE = nn.RMSE(testMean, test.Y)

	nll, _, _ := nn.GaussianNLL(nn.InputMatrix(testMean), test.Y, model.Sigma())
	res.TestNLL = nll

	_, gridStd := model.Sample(dataset.Grid(exp), samples)
	res.GridPredStd = stat.Mean(gridStd, nil)

	res.Sigma = model.Sigma()
}

// CheckpointPath returns the checkpoint file for a record's seed under
// the record's save_path directory.
func CheckpointPath(exp *config.Experiment, seed int64) string {
	return filepath.Join(exp.SavePath, fmt.Sprintf("%s_seed%d.json", exp.ExpName, seed))
}
