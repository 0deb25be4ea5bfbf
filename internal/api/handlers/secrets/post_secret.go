package secrets

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/SafeMPC/custody-engine/internal/api/httperrors"
	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/tx"
	"github.com/SafeMPC/custody-engine/internal/types"
	"github.com/SafeMPC/custody-engine/internal/util"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/labstack/echo/v4"
)

// PostSecretRoute 注册存入机密路由
func PostSecretRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Secrets.POST("", postSecretHandler(s))
}

// postSecretHandler 存入机密。导入私钥时顺带校验格式并回显推导地址。
func postSecretHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		if err := s.RequireAuthorization(c, custody.ActionCreateBackup); err != nil {
			return err
		}

		walletID := c.Param("walletId")

		var body types.PostSecretPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		plaintext, err := base64.StdEncoding.DecodeString(body.Plaintext)
		if err != nil {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "plaintext must be base64 encoded")
		}
		defer clear(plaintext)

		id := custody.SecretID{WalletID: walletID, Kind: custody.SecretKind(body.Kind)}

		response := &types.PostSecretResponse{
			WalletID: walletID,
			Kind:     body.Kind,
		}

		// 私钥导入：解析并推导地址，无法解析的密钥直接拒绝
		if id.Kind == custody.SecretKindPrivateKey {
			privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(string(plaintext)), "0x"))
			if err != nil {
				return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "plaintext is not a valid secp256k1 private key")
			}
			address, err := tx.DeriveAddress(crypto.CompressPubkey(&privateKey.PublicKey))
			privateKey.D.SetInt64(0)
			if err != nil {
				return httperrors.NewFromEngineError(err)
			}
			response.Address = address
		}

		if err := s.Vault.Store(ctx, id, plaintext); err != nil {
			log.Warn().Err(err).Str("secret_id", id.String()).Msg("Failed to store secret")
			return httperrors.NewFromEngineError(err)
		}
		s.Metrics.SecretAccesses.WithLabelValues("store").Inc()

		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
