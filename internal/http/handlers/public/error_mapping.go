package public

import (
	handlershared "github.com/cardmint/internal/http/handlers/shared"
	"github.com/cardmint/internal/http/response"
	"github.com/cardmint/internal/render"
	"github.com/cardmint/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondWithMappedError(c *gin.Context, err error, rules []handlershared.MappedError, fallbackCode int, fallbackKey string) {
	handlershared.RespondWithMappedError(c, err, rules, fallbackCode, fallbackKey)
}

var rewardQueryErrorRules = []handlershared.MappedError{
	{Target: service.ErrRewardNotFound, Code: response.CodeNotFound, Key: "error.reward_not_found"},
	{Target: service.ErrRewardFetchFailed, Code: response.CodeInternal, Key: "error.reward_fetch_failed"},
}

var rewardClaimErrorRules = []handlershared.MappedError{
	{Target: service.ErrClaimantRequired, Code: response.CodeUnauthorized, Key: "error.unauthorized"},
	{Target: service.ErrRewardNotFound, Code: response.CodeNotFound, Key: "error.reward_not_found"},
	{Target: service.ErrRewardLocked, Code: response.CodeBadRequest, Key: "error.reward_locked"},
	{Target: service.ErrRewardAlreadyClaimed, Code: response.CodeConflict, Key: "error.reward_already_claimed"},
	{Target: service.ErrClaimInProgress, Code: response.CodeTooManyRequests, Key: "error.claim_in_progress"},
	{Target: service.ErrRewardOutOfStock, Code: response.CodeConflict, Key: "error.reward_out_of_stock"},
	{Target: service.ErrRewardFetchFailed, Code: response.CodeInternal, Key: "error.reward_fetch_failed"},
}

var claimLinkGenerateErrorRules = []handlershared.MappedError{
	{Target: service.ErrCardNotFound, Code: response.CodeNotFound, Key: "error.card_not_found"},
	{Target: service.ErrClaimLinkForbidden, Code: response.CodeForbidden, Key: "error.claim_link_forbidden"},
	{Target: service.ErrCardFetchFailed, Code: response.CodeInternal, Key: "error.card_fetch_failed"},
}

var claimLinkConsumeErrorRules = []handlershared.MappedError{
	{Target: service.ErrClaimantRequired, Code: response.CodeUnauthorized, Key: "error.unauthorized"},
	{Target: service.ErrClaimLinkNotFound, Code: response.CodeNotFound, Key: "error.claim_link_not_found"},
	{Target: service.ErrClaimLinkUsed, Code: response.CodeConflict, Key: "error.claim_link_used"},
	{Target: service.ErrClaimLinkRevoked, Code: response.CodeGone, Key: "error.claim_link_revoked"},
	{Target: service.ErrClaimLinkExpired, Code: response.CodeGone, Key: "error.claim_link_expired"},
	{Target: service.ErrClaimLinkSelfConsume, Code: response.CodeBadRequest, Key: "error.claim_link_self_consume"},
	{Target: service.ErrCardNotFound, Code: response.CodeNotFound, Key: "error.card_not_found"},
}

var claimLinkQRErrorRules = []handlershared.MappedError{
	{Target: render.ErrUnsupportedFormat, Code: response.CodeBadRequest, Key: "error.export_format_invalid"},
	{Target: service.ErrClaimLinkNotFound, Code: response.CodeNotFound, Key: "error.claim_link_not_found"},
	{Target: service.ErrClaimLinkUsed, Code: response.CodeConflict, Key: "error.claim_link_used"},
	{Target: service.ErrClaimLinkRevoked, Code: response.CodeGone, Key: "error.claim_link_revoked"},
	{Target: service.ErrClaimLinkExpired, Code: response.CodeGone, Key: "error.claim_link_expired"},
}
