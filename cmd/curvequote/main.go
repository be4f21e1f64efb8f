package main

import (
	"context"
	"encoding/hex"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/holiman/uint256"
	"github.com/jedib0t/go-pretty/v6/table"

	redemptionswap "hadydotai/redemption-swap"
	"hadydotai/redemption-swap/curve"
)

const displayPrecision = 12

func fetchSwapCurve(ctx context.Context, rpcEP, swapAddr string) *curve.SwapCurve {
	swapPubK, err := solana.PublicKeyFromBase58(swapAddr)
	if err != nil {
		log.Fatalf("deriving public key from swap address (base58) failed, make sure it's b58 encoded: %s\n", err)
	}

	client := rpc.New(rpcEP)
	accountInfo, err := client.GetAccountInfoWithOpts(ctx, swapPubK, &rpc.GetAccountInfoOpts{Encoding: solana.EncodingBase64})
	if err != nil {
		log.Fatalf("rpc call getAccountInfo failed, check if the RPC endpoint is valid, or if you're being limited: %s\n", err)
	}

	sc, err := curve.ExtractCurveFromSwapAccount(accountInfo.Value.Data.GetBinary())
	if err != nil {
		log.Fatalf("extracting the curve failed, make sure the address you passed is a token-swap pool account: %s\n", err)
	}
	return sc
}

func decodeSwapCurve(blobHex string) *curve.SwapCurve {
	data, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(blobHex), "0x"))
	if err != nil {
		log.Fatalf("decoding the curve blob failed, make sure it's hex encoded: %s\n", err)
	}
	sc, err := curve.UnpackSwapCurve(data)
	if err != nil {
		log.Fatalf("unpacking the curve blob failed: %s\n", err)
	}
	return sc
}

func appendCurveRows(t table.Writer, sc *curve.SwapCurve, timestamp *uint256.Int) {
	t.AppendRow(table.Row{"Curve", sc.Type.String()})
	switch calc := sc.Calculator.(type) {
	case *curve.ConstantPriceCurve:
		t.AppendRow(table.Row{"Token B price", rayForDisplay(calc.TokenBPrice, curve.Ray, displayPrecision)})
	case *curve.RedemptionRateCurve:
		t.AppendRow(table.Row{"SSR (per second)", rayForDisplay(calc.Ssr, calc.Ray, 27)})
		if !calc.MaxSsr.IsZero() {
			t.AppendRow(table.Row{"Max SSR", rayForDisplay(calc.MaxSsr, calc.Ray, 27)})
		}
		t.AppendRow(table.Row{"Checkpoint (rho)", calc.Rho.Dec()})
		t.AppendRow(table.Row{"Index at checkpoint (chi)", rayForDisplay(calc.Chi, calc.Ray, displayPrecision)})
		rate, err := calc.ConversionRate(timestamp)
		if err != nil {
			log.Fatalf("projecting the conversion rate to %s failed: %s\n", timestamp.Dec(), err)
		}
		t.AppendRow(table.Row{"Projected rate", rayForDisplay(rate, calc.Ray, displayPrecision)})
	}
}

func main() {
	var (
		rpcEP        = flag.String("rpc", rpc.MainNetBeta_RPC, "RPC to connect to")
		swapAddr     = flag.String("swap", "", "Swap pool account to quote against (base58)")
		blobHex      = flag.String("blob", "", "Packed curve blob (hex), quotes offline instead of fetching -swap")
		amountStr    = flag.String("amount", "1000000", "Source amount to quote, in base token units")
		directionStr = flag.String("direction", "atob", "Trade direction, atob or btoa")
		timestampStr = flag.String("timestamp", "", "Quote timestamp in unix seconds, defaults to now")
	)
	flag.Parse()

	ValidateConfigOrExit(nil, []FlagSpec{
		{Name: "rpc", Value: rpcEP, Rules: []FlagRule{NotEmpty()}},
		{Name: "swap", Value: swapAddr, Rules: []FlagRule{ExactlyOneWith("blob")}},
		{Name: "blob", Value: blobHex},
		{Name: "amount", Value: amountStr, Rules: []FlagRule{NotEmpty()}},
		{Name: "direction", Value: directionStr, Rules: []FlagRule{OneOf("atob", "btoa")}},
	})

	amount, err := parseAmount(*amountStr)
	if err != nil {
		log.Fatalf("invalid -amount: %s\n", err)
	}

	direction := curve.TradeDirectionAtoB
	if strings.EqualFold(strings.TrimSpace(*directionStr), "btoa") {
		direction = curve.TradeDirectionBtoA
	}

	timestamp := uint256.NewInt(uint64(time.Now().Unix()))
	if strings.TrimSpace(*timestampStr) != "" {
		if timestamp, err = parseTimestamp(*timestampStr); err != nil {
			log.Fatalf("invalid -timestamp: %s\n", err)
		}
	}

	var sc *curve.SwapCurve
	var title string
	if *blobHex != "" {
		sc = decodeSwapCurve(*blobHex)
		title = "offline curve blob"
	} else {
		sc = fetchSwapCurve(context.Background(), *rpcEP, *swapAddr)
		title = *swapAddr
	}

	engine, err := redemptionswap.NewFromSwapCurve(sc)
	if err != nil {
		log.Fatalf("building the pricing engine failed: %s\n", err)
	}
	if err := engine.Validate(timestamp); err != nil {
		log.Fatalf("the decoded curve cannot quote: %s\n", err)
	}

	// quote-only: the curves price swaps off the rate alone, so no
	// reserve balances are needed here
	zero := uint256.NewInt(0)
	result, err := engine.Swap(amount, zero, zero, direction, timestamp)
	if err != nil {
		log.Fatalf("quoting the swap failed: %s\n", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(title)
	t.SetCaption("token-swap curve quote")
	appendCurveRows(t, sc, timestamp)
	t.AppendSeparator()
	t.AppendRow(table.Row{"Direction", *directionStr})
	t.AppendRow(table.Row{"Amount offered", amount.Dec()})
	t.AppendRow(table.Row{"Source used", result.SourceAmountSwapped.Dec()})
	t.AppendRow(table.Row{"Destination out", result.DestinationAmountSwapped.Dec()})
	t.Render()
}
