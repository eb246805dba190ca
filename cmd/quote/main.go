// Offline quote tool: prices a swap against hand-supplied reserves
// without touching Redis or the API. Useful for sanity-checking pool
// parameters before funding a pool.
package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/equilibrium-amm/internal/amm"
)

func main() {
	// Flags
	reservesFlag := flag.String("reserves", "", "Comma-separated pool reserves, e.g. 1000000,1000000")
	targetsFlag := flag.String("targets", "", "Comma-separated target weights in basis points (default: balanced)")
	ampFlag := flag.Uint64("amp", 100, "Amplification coefficient")
	amountFlag := flag.Uint64("amount", 0, "Input amount to quote")
	inFlag := flag.Int("in", 0, "Index of the input asset")
	outFlag := flag.Int("out", 1, "Index of the output asset")
	flag.Parse()

	// Logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	reserves, err := parseAmounts(*reservesFlag)
	if err != nil {
		logger.WithError(err).Fatal("invalid -reserves")
	}
	if len(reserves) < 2 {
		logger.Fatal("at least two reserves are required")
	}
	if *inFlag < 0 || *inFlag >= len(reserves) || *outFlag < 0 || *outFlag >= len(reserves) || *inFlag == *outFlag {
		logger.Fatal("-in and -out must be distinct reserve indices")
	}
	if *amountFlag == 0 {
		logger.Fatal("-amount must be positive")
	}

	targets := balancedWeights(len(reserves))
	if *targetsFlag != "" {
		targets, err = parseAmounts(*targetsFlag)
		if err != nil {
			logger.WithError(err).Fatal("invalid -targets")
		}
		if len(targets) != len(reserves) {
			logger.Fatal("-targets must match the number of reserves")
		}
	}

	d, err := amm.Invariant(reserves, *ampFlag)
	if err != nil {
		logger.WithError(err).Fatal("invariant computation failed")
	}

	weights := amm.Weights(reserves)
	fee := amm.DynamicFee(weights, targets)

	amountOut, feePaid, err := amm.SwapOutput(*amountFlag, reserves[*inFlag], reserves[*outFlag], fee, *ampFlag)
	if err != nil {
		logger.WithError(err).Fatal("swap output computation failed")
	}

	fmt.Printf("invariant:   %d\n", d)
	fmt.Printf("weights:     %v (target %v)\n", weights, targets)
	fmt.Printf("fee:         %d/1000\n", fee)
	fmt.Printf("amount in:   %d (fee paid %d)\n", *amountFlag, feePaid)
	fmt.Printf("amount out:  %d\n", amountOut)
}

func parseAmounts(s string) ([]uint64, error) {
	parts := strings.Split(s, ",")
	out := make([]uint64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a uint64", p)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no values given")
	}
	return out, nil
}

func balancedWeights(n int) []uint64 {
	out := make([]uint64, n)
	share := amm.WeightDenominator / uint64(n)
	var sum uint64
	for i := range out {
		out[i] = share
		sum += share
	}
	// Put the truncation remainder on the first asset so the weights
	// always sum to the full denominator.
	out[0] += amm.WeightDenominator - sum
	return out
}
