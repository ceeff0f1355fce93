package correlation

import (
	"sort"
	"time"

	"SentiPull/internal/domain/models"
)

// Align partitions both series into UTC-truncated buckets of width
// interval and joins them into (mean sentiment, price return) pairs,
// ordered by bucket ascending.
//
// All observations must carry the same ticker. Inputs may arrive
// unordered; both series are sorted here before bucketing. Duplicate
// timestamps inside a bucket aggregate. The bucket close is the last
// price observation inside the bucket, and the return for bucket B is
// (close(B+interval) - close(B)) / close(B). A bucket is dropped, not
// zero-filled, when it has no sentiment observations, when the close
// on either boundary is missing, or when the starting close is zero.
// Empty inputs produce an empty pair slice and no error.
func Align(sentiments []models.SentimentObservation, prices []models.PriceObservation, interval time.Duration) ([]models.AlignedPair, error) {
	if interval <= 0 {
		return nil, invalidInput("interval", "must be positive, got %s", interval)
	}
	if err := checkSeries(sentiments, prices); err != nil {
		return nil, err
	}

	// Copies keep the caller's ordering intact.
	ss := make([]models.SentimentObservation, len(sentiments))
	copy(ss, sentiments)
	sort.SliceStable(ss, func(i, j int) bool { return ss[i].Timestamp.Before(ss[j].Timestamp) })
	ps := make([]models.PriceObservation, len(prices))
	copy(ps, prices)
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Timestamp.Before(ps[j].Timestamp) })

	type agg struct {
		sum   float64
		count int
	}
	sentiByBucket := make(map[int64]*agg, len(ss))
	order := make([]int64, 0, len(ss))
	for i := range ss {
		b := bucketStart(ss[i].Timestamp, interval).UnixNano()
		a, ok := sentiByBucket[b]
		if !ok {
			a = &agg{}
			sentiByBucket[b] = a
			order = append(order, b)
		}
		a.sum += ss[i].Score
		a.count++
	}

	// Last observation inside a bucket wins as the bucket close.
	closeByBucket := make(map[int64]float64, len(ps))
	for i := range ps {
		closeByBucket[bucketStart(ps[i].Timestamp, interval).UnixNano()] = ps[i].Close
	}

	pairs := make([]models.AlignedPair, 0, len(order))
	for _, b := range order {
		startClose, ok := closeByBucket[b]
		if !ok || startClose == 0 {
			continue
		}
		endClose, ok := closeByBucket[b+interval.Nanoseconds()]
		if !ok {
			continue
		}
		a := sentiByBucket[b]
		pairs = append(pairs, models.AlignedPair{
			Bucket:      time.Unix(0, b).UTC(),
			Sentiment:   a.sum / float64(a.count),
			Return:      (endClose - startClose) / startClose,
			SourceCount: a.count,
		})
	}
	return pairs, nil
}

// bucketStart truncates t onto the UTC bucket grid. Truncation fixed
// points make re-aligning already aligned buckets a no-op.
func bucketStart(t time.Time, interval time.Duration) time.Time {
	return t.UTC().Truncate(interval)
}
