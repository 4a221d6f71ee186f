// Reelway - Movie Streaming Backend and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelway

package algorithms

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// ALSConfig contains configuration for the ALS algorithm.
type ALSConfig struct {
	// Factors is the dimension of the latent factor vectors.
	Factors int

	// Iterations is the number of alternating optimization rounds.
	Iterations int

	// Regularization is the L2 regularization parameter.
	Regularization float64

	// Alpha scales interaction strength into confidence:
	// c = 1 + alpha * r. Stronger interactions pull the fit harder.
	Alpha float64

	// Workers is the number of parallel workers for factor updates.
	// If <= 0, defaults to 4.
	Workers int
}

// DefaultALSConfig returns default ALS configuration.
func DefaultALSConfig() ALSConfig {
	return ALSConfig{
		Factors:        10,
		Iterations:     10,
		Regularization: 0.1,
		Alpha:          1.0,
		Workers:        4,
	}
}

// ALS implements alternating least squares over weighted explicit
// feedback. The interaction strength is both the regression target and,
// scaled by Alpha, the confidence weight of its squared-error term:
//
//	sum_{(u,i) observed} (1 + alpha*r_ui) * (r_ui - x_u'*y_i)^2
//	  + lambda * (||x_u||^2 + ||y_i||^2)
//
// Factors are clipped nonnegative after every solve. Users and items
// absent from training keep no factors, so prediction for them is
// declined rather than guessed.
type ALS struct {
	BaseAlgorithm
	config ALSConfig

	// X is the user factor matrix (numUsers x Factors).
	X [][]float64

	// Y is the item factor matrix (numItems x Factors).
	Y [][]float64

	// userIndex maps user ID to matrix row.
	userIndex map[string]int

	// itemIndex maps item ID to matrix row.
	itemIndex map[string]int

	// indexToUser maps matrix row back to user ID.
	indexToUser []string

	// indexToItem maps matrix row back to item ID.
	indexToItem []string

	// rmse is the root-mean-square error over the training ratings,
	// measured after the final iteration.
	rmse float64
}

// NewALS creates a new ALS model with the given configuration.
func NewALS(cfg ALSConfig) *ALS {
	if cfg.Factors <= 0 {
		cfg.Factors = 10
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 10
	}
	if cfg.Regularization < 0 {
		cfg.Regularization = 0.1
	}
	if cfg.Alpha < 0 {
		cfg.Alpha = 1.0
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	return &ALS{
		BaseAlgorithm: NewBaseAlgorithm("als"),
		config:        cfg,
		userIndex:     make(map[string]int),
		itemIndex:     make(map[string]int),
	}
}

// Train fits the model using alternating optimization.
//
//nolint:gocyclo // ML training algorithms are inherently complex
func (a *ALS) Train(ctx context.Context, ratings []Rating) error {
	a.acquireTrainLock()
	defer a.releaseTrainLock()

	if len(ratings) == 0 {
		return fmt.Errorf("no ratings to fit")
	}
	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	// Dense reindex: string IDs to contiguous matrix rows.
	a.userIndex = make(map[string]int)
	a.itemIndex = make(map[string]int)
	a.indexToUser = nil
	a.indexToItem = nil

	for _, r := range ratings {
		if _, ok := a.userIndex[r.UserID]; !ok {
			a.userIndex[r.UserID] = len(a.indexToUser)
			a.indexToUser = append(a.indexToUser, r.UserID)
		}
		if _, ok := a.itemIndex[r.ItemID]; !ok {
			a.itemIndex[r.ItemID] = len(a.indexToItem)
			a.indexToItem = append(a.indexToItem, r.ItemID)
		}
	}

	numUsers := len(a.indexToUser)
	numItems := len(a.indexToItem)
	numFactors := a.config.Factors

	// Sparse rating matrix and its transpose. Duplicates keep the
	// strongest observation.
	userItems := make(map[int]map[int]float64, numUsers)
	for _, r := range ratings {
		ui := a.userIndex[r.UserID]
		ii := a.itemIndex[r.ItemID]
		if userItems[ui] == nil {
			userItems[ui] = make(map[int]float64)
		}
		if r.Value > userItems[ui][ii] {
			userItems[ui][ii] = r.Value
		}
	}

	itemUsers := make(map[int]map[int]float64, numItems)
	for ui, itemMap := range userItems {
		for ii, val := range itemMap {
			if itemUsers[ii] == nil {
				itemUsers[ii] = make(map[int]float64)
			}
			itemUsers[ii][ui] = val
		}
	}

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	// Deterministic small initialization so repeated runs over the
	// same snapshot produce the same model.
	a.X = make([][]float64, numUsers)
	for u := 0; u < numUsers; u++ {
		a.X[u] = make([]float64, numFactors)
		for f := 0; f < numFactors; f++ {
			a.X[u][f] = 0.1 * (float64((u*numFactors+f)%1000)/1000.0 + 0.01)
		}
	}

	a.Y = make([][]float64, numItems)
	for i := 0; i < numItems; i++ {
		a.Y[i] = make([]float64, numFactors)
		for f := 0; f < numFactors; f++ {
			a.Y[i][f] = 0.1 * (float64((i*numFactors+f)%1000)/1000.0 + 0.01)
		}
	}

	lambda := a.config.Regularization

	for iter := 0; iter < a.config.Iterations; iter++ {
		if ContextCancelled(ctx) {
			return ctx.Err()
		}

		// Update user factors (fix Y, solve for X).
		a.updateFactors(a.X, a.Y, userItems, numUsers, numFactors, lambda)

		if ContextCancelled(ctx) {
			return ctx.Err()
		}

		// Update item factors (fix X, solve for Y).
		a.updateFactors(a.Y, a.X, itemUsers, numItems, numFactors, lambda)
	}

	if err := a.checkFinite(); err != nil {
		return err
	}

	a.rmse = a.trainingRMSE(userItems)
	a.markTrained()
	return nil
}

// updateFactors re-solves every row of target against the fixed other
// matrix, splitting rows across workers.
func (a *ALS) updateFactors(target, fixed [][]float64, observed map[int]map[int]float64, numRows, numFactors int, lambda float64) {
	var wg sync.WaitGroup
	chunkSize := (numRows + a.config.Workers - 1) / a.config.Workers

	for w := 0; w < a.config.Workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > numRows {
			end = numRows
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(rStart, rEnd int) {
			defer wg.Done()
			for r := rStart; r < rEnd; r++ {
				target[r] = a.solveRow(fixed, observed[r], numFactors, lambda)
			}
		}(start, end)
	}

	wg.Wait()
}

// solveRow computes one factor vector from its observed counterpart
// rows:
//
//	A = lambda*I + sum_j c_j * v_j * v_j'
//	b = sum_j c_j * r_j * v_j
//
// where c_j = 1 + alpha*r_j, then solves A*x = b and clips the result
// nonnegative.
//
//nolint:gocritic // A follows standard linear algebra notation
func (a *ALS) solveRow(fixed [][]float64, observed map[int]float64, numFactors int, lambda float64) []float64 {
	A := make([][]float64, numFactors)
	for f := range A {
		A[f] = make([]float64, numFactors)
		A[f][f] = lambda
	}

	// Fixed summation order keeps repeated fits bit-identical.
	keys := make([]int, 0, len(observed))
	for j := range observed {
		keys = append(keys, j)
	}
	sort.Ints(keys)

	b := make([]float64, numFactors)
	for _, j := range keys {
		val := observed[j]
		v := fixed[j]
		conf := 1.0 + a.config.Alpha*val

		for f1 := 0; f1 < numFactors; f1++ {
			for f2 := f1; f2 < numFactors; f2++ {
				delta := conf * v[f1] * v[f2]
				A[f1][f2] += delta
				if f1 != f2 {
					A[f2][f1] += delta
				}
			}
			b[f1] += conf * val * v[f1]
		}
	}

	x := solveLinearSystem(A, b)
	for f := range x {
		if x[f] < 0 {
			x[f] = 0
		}
	}
	return x
}

// solveLinearSystem solves A*x = b using Cholesky decomposition.
//
//nolint:gocritic // A, L follow standard linear algebra notation
func solveLinearSystem(A [][]float64, b []float64) []float64 {
	n := len(b)

	// Cholesky decomposition: A = L * L'
	L := make([][]float64, n)
	for i := range L {
		L[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := A[i][j]
			for k := 0; k < j; k++ {
				sum -= L[i][k] * L[j][k]
			}

			if i == j {
				if sum <= 0 {
					// Add regularization if not positive definite
					sum = 1e-10
				}
				L[i][j] = math.Sqrt(sum)
			} else {
				if L[j][j] != 0 {
					L[i][j] = sum / L[j][j]
				}
			}
		}
	}

	// Solve L * z = b (forward substitution)
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= L[i][j] * z[j]
		}
		if L[i][i] != 0 {
			z[i] = sum / L[i][i]
		}
	}

	// Solve L' * x = z (back substitution)
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := z[i]
		for j := i + 1; j < n; j++ {
			sum -= L[j][i] * x[j]
		}
		if L[i][i] != 0 {
			x[i] = sum / L[i][i]
		}
	}

	return x
}

// checkFinite rejects models whose factors degenerated to NaN or Inf.
func (a *ALS) checkFinite() error {
	for _, row := range a.X {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("user factors contain non-finite values")
			}
		}
	}
	for _, row := range a.Y {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("item factors contain non-finite values")
			}
		}
	}
	return nil
}

// trainingRMSE measures fit error over the ratings the model was
// trained on. This is an optimistic estimate; it exists for run-to-run
// drift monitoring, not generalization claims.
func (a *ALS) trainingRMSE(userItems map[int]map[int]float64) float64 {
	var sumSq float64
	var n int

	for ui, itemMap := range userItems {
		for ii, val := range itemMap {
			pred := dot(a.X[ui], a.Y[ii])
			diff := val - pred
			sumSq += diff * diff
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sumSq / float64(n))
}

func dot(x, y []float64) float64 {
	var s float64
	for f := range x {
		s += x[f] * y[f]
	}
	return s
}

// RMSE returns the training-set RMSE of the last fit.
func (a *ALS) RMSE() float64 {
	a.acquirePredictLock()
	defer a.releasePredictLock()
	return a.rmse
}

// Users returns the IDs of all users the model was trained on, in
// matrix-row order.
func (a *ALS) Users() []string {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	out := make([]string, len(a.indexToUser))
	copy(out, a.indexToUser)
	return out
}

// Predict returns predicted ratings for the candidate items. It
// returns nil for a user absent from training, and silently skips
// candidate items absent from training (cold-start drop).
func (a *ALS) Predict(_ context.Context, userID string, candidates []string) (map[string]float64, error) {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	if !a.trained || len(a.X) == 0 || len(a.Y) == 0 {
		return nil, nil
	}

	ui, ok := a.userIndex[userID]
	if !ok {
		return nil, nil
	}

	userVec := a.X[ui]
	scores := make(map[string]float64, len(candidates))
	for _, itemID := range candidates {
		ii, ok := a.itemIndex[itemID]
		if !ok {
			continue
		}
		scores[itemID] = dot(userVec, a.Y[ii])
	}
	return scores, nil
}

// TopItems returns the user's n highest-predicted items across the
// whole trained catalog, descending, ties broken by matrix-row order.
// Returns nil for a user absent from training.
func (a *ALS) TopItems(ctx context.Context, userID string, n int) ([]ItemScore, error) {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	if !a.trained || len(a.X) == 0 || len(a.Y) == 0 || n <= 0 {
		return nil, nil
	}
	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}

	ui, ok := a.userIndex[userID]
	if !ok {
		return nil, nil
	}

	userVec := a.X[ui]
	scored := make([]ItemScore, len(a.indexToItem))
	for ii, itemID := range a.indexToItem {
		scored[ii] = ItemScore{ItemID: itemID, Score: dot(userVec, a.Y[ii])}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > n {
		scored = scored[:n]
	}
	return scored, nil
}

// Model is the serializable snapshot of a fitted ALS model.
type Model struct {
	Config      ALSConfig
	UserFactors [][]float64
	ItemFactors [][]float64
	Users       []string
	Items       []string
	RMSE        float64
	TrainedAt   time.Time
}

// Export snapshots the fitted model for persistence. Returns nil when
// the model has not been trained.
func (a *ALS) Export() *Model {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	if !a.trained {
		return nil
	}

	m := &Model{
		Config:      a.config,
		UserFactors: copyMatrix(a.X),
		ItemFactors: copyMatrix(a.Y),
		Users:       append([]string(nil), a.indexToUser...),
		Items:       append([]string(nil), a.indexToItem...),
		RMSE:        a.rmse,
		TrainedAt:   a.lastTrainedAt,
	}
	return m
}

// RestoreALS rebuilds a trained ALS model from a persisted snapshot.
func RestoreALS(m *Model) (*ALS, error) {
	if m == nil {
		return nil, fmt.Errorf("nil model snapshot")
	}
	if len(m.UserFactors) != len(m.Users) {
		return nil, fmt.Errorf("snapshot user factors (%d) do not match user IDs (%d)",
			len(m.UserFactors), len(m.Users))
	}
	if len(m.ItemFactors) != len(m.Items) {
		return nil, fmt.Errorf("snapshot item factors (%d) do not match item IDs (%d)",
			len(m.ItemFactors), len(m.Items))
	}

	a := NewALS(m.Config)
	a.X = copyMatrix(m.UserFactors)
	a.Y = copyMatrix(m.ItemFactors)
	a.indexToUser = append([]string(nil), m.Users...)
	a.indexToItem = append([]string(nil), m.Items...)
	a.userIndex = make(map[string]int, len(m.Users))
	for i, id := range m.Users {
		a.userIndex[id] = i
	}
	a.itemIndex = make(map[string]int, len(m.Items))
	for i, id := range m.Items {
		a.itemIndex[id] = i
	}
	a.rmse = m.RMSE

	a.trained = true
	a.version = 1
	a.lastTrainedAt = m.TrainedAt
	return a, nil
}

func copyMatrix(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	out := make([][]float64, len(m))
	for i := range m {
		out[i] = make([]float64, len(m[i]))
		copy(out[i], m[i])
	}
	return out
}
