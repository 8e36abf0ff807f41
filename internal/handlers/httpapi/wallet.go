package httpapi

import (
	"net/http"

	"walletgate/internal/balance"
	"walletgate/internal/pkg/validator"

	"github.com/gorilla/mux"
)

// walletBalanceInput carries the validated parameters of a balance lookup.
type walletBalanceInput struct {
	Address    string `validate:"required"`
	ProviderID string `validate:"required"`
}

// walletBalanceResponse is the wire shape of GET /wallet/{address}.
type walletBalanceResponse struct {
	Balance    float64       `json:"balance"`
	BalanceUSD float64       `json:"balanceUSD"`
	Tokens     []walletToken `json:"tokens"`
}

type walletToken struct {
	Mint   string  `json:"mint"`
	Symbol string  `json:"symbol"`
	Amount float64 `json:"amount"`
}

// handleWalletBalance serves GET /wallet/{address}?providerId={networkId}.
func (a *api) handleWalletBalance(w http.ResponseWriter, r *http.Request) {
	input := walletBalanceInput{
		Address:    mux.Vars(r)["address"],
		ProviderID: r.URL.Query().Get("providerId"),
	}
	if err := validator.Validate(input); err != nil {
		writeError(w, r, err)
		return
	}

	snapshot, err := a.balance.GetBalance(r.Context(), input.Address, input.ProviderID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toWalletBalanceResponse(snapshot))
}

func toWalletBalanceResponse(snapshot balance.Snapshot) walletBalanceResponse {
	tokens := make([]walletToken, 0, len(snapshot.Tokens))
	for _, t := range snapshot.Tokens {
		tokens = append(tokens, walletToken{
			Mint:   t.Mint,
			Symbol: t.Symbol,
			Amount: t.Amount,
		})
	}

	return walletBalanceResponse{
		Balance:    snapshot.NativeAmount,
		BalanceUSD: snapshot.USDValue,
		Tokens:     tokens,
	}
}
