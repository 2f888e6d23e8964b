package actions

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/executor"
	"BNBChain-Agent/internal/normalize"
	"BNBChain-Agent/pkg/plugin"
)

func success(text string, content map[string]any) plugin.Result {
	return plugin.Result{Success: true, Text: text, Content: content}
}

// failure classifies err into a structured result. Content collected so far,
// such as a transaction hash, is kept.
func failure(ctx context.Context, log *slog.Logger, action string, err error, content map[string]any, opts ...xerrors.ClassifyOption) plugin.Result {
	c := xerrors.Classify(err, opts...)
	errCtx := map[string]any{"action": action}
	if c.Cause != "" && c.Cause != c.Message {
		errCtx["cause"] = c.Cause
	}
	if coded, ok := xerrors.From(err); ok {
		for k, v := range coded.Metadata() {
			errCtx[k] = v
		}
	}
	log.WarnContext(ctx, "action failed",
		slog.String("action", action),
		slog.String("kind", string(c.Kind)),
		slog.String("cause", c.Cause))
	return plugin.Result{
		Success: false,
		Text:    c.Message,
		Content: content,
		Error:   &plugin.ErrorInfo{Kind: string(c.Kind), Message: c.Message, Context: errCtx},
	}
}

// txContent is the content common to every transaction result. amount is
// rendered with decimals when the base unit amount is known.
func txContent(res *executor.TransactionResult, decimals int) map[string]any {
	content := map[string]any{
		"chain": string(res.Chain),
		"state": res.State.String(),
	}
	if res.Token != "" {
		content["token"] = res.Token
	}
	if res.Amount != "" {
		if v, ok := new(big.Int).SetString(res.Amount, 10); ok && decimals >= 0 {
			content["amount"] = normalize.FromBaseUnits(v, decimals)
		} else {
			content["amount"] = res.Amount
		}
	}
	if hash := res.HashHex(); hash != "" {
		content["hash"] = hash
		content["explorerUrl"] = res.Explorer
	}
	if res.Status != nil {
		content["status"] = *res.Status
	}
	return content
}

// finishTx turns a lifecycle outcome into a result. A submitted transaction
// whose receipt was not observed is reported with its hash.
func finishTx(ctx context.Context, log *slog.Logger, action string, res *executor.TransactionResult, decimals int, err error, done string, opts ...xerrors.ClassifyOption) plugin.Result {
	content := txContent(res, decimals)
	if err == nil {
		return success(fmt.Sprintf("%s Transaction: %s", done, res.Explorer), content)
	}
	result := failure(ctx, log, action, err, content, opts...)
	if xerrors.CodeOf(err) == xerrors.CodeConfirmationUnknown && res.Hash != nil {
		result.Text = fmt.Sprintf("Transaction %s was submitted on %s but its confirmation could not be observed. "+
			"It may still succeed; check %s before retrying.", res.HashHex(), res.Chain, res.Explorer)
	}
	return result
}
