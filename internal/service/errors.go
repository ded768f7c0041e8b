package service

import "errors"

// 商品
var (
	ErrProductInvalid     = errors.New("product is invalid")
	ErrProductSlugExists  = errors.New("product slug already exists")
	ErrProductFetchFailed = errors.New("product fetch failed")
)

// 卡片分配
var (
	ErrCardProductRequired = errors.New("card product is required")
	ErrProductNotFound     = errors.New("product not found")
	ErrCardTypeInvalid     = errors.New("card type is invalid")
	ErrCardPrefixMissing   = errors.New("card code prefix is not configured")
	ErrCardPrefixMismatch  = errors.New("card code prefix does not match product")
	ErrCardCodeConflict    = errors.New("card code already allocated")
	ErrCardNotFound        = errors.New("card not found")
	ErrCardBatchNotFound   = errors.New("card batch not found")
	ErrCardAllocateFailed  = errors.New("card allocation failed")
	ErrCardFetchFailed     = errors.New("card fetch failed")
	ErrCardUpdateFailed    = errors.New("card update failed")
	ErrCardPayloadIssued   = errors.New("card payload already issued")
	ErrCardPayloadMissing  = errors.New("card payload not issued")
)

// 奖励领取
var (
	ErrRewardNotFound       = errors.New("reward not found")
	ErrRewardInvalid        = errors.New("reward is invalid")
	ErrRewardLocked         = errors.New("reward is locked")
	ErrRewardAlreadyClaimed = errors.New("reward already claimed")
	ErrClaimInProgress      = errors.New("claim already in progress")
	ErrClaimFailed          = errors.New("reward claim failed")
	ErrRewardFetchFailed    = errors.New("reward fetch failed")
	ErrClaimantRequired     = errors.New("claimant is required")
	ErrRewardOutOfStock     = errors.New("reward special cards exhausted")
)

// 领取链接
var (
	ErrClaimLinkForbidden     = errors.New("claim link forbidden")
	ErrClaimLinkNotFound      = errors.New("claim link not found")
	ErrClaimLinkUsed          = errors.New("claim link already used")
	ErrClaimLinkExpired       = errors.New("claim link expired")
	ErrClaimLinkRevoked       = errors.New("claim link revoked")
	ErrClaimLinkSelfConsume   = errors.New("claim link cannot be consumed by card owner")
	ErrClaimLinkCreateFailed  = errors.New("claim link create failed")
	ErrClaimLinkConsumeFailed = errors.New("claim link consume failed")
)

// 导出
var (
	ErrExportNoCards      = errors.New("export selection is empty")
	ErrExportTooManyCards = errors.New("export selection exceeds limit")
	ErrExportFailed       = errors.New("card export failed")
	ErrExportJobNotFound  = errors.New("export job not found")
	ErrExportJobNotReady  = errors.New("export job not finished")
	ErrQueueUnavailable   = errors.New("task queue unavailable")
	ErrRenderFailed       = errors.New("artifact render failed")
	ErrExportArchiveGone  = errors.New("export archive missing")
	ErrExportEmpty        = errors.New("export produced no artifacts")
)
