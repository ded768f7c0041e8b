package repository

// CardListFilter 卡片列表筛选
type CardListFilter struct {
	Page        int
	PageSize    int
	ProductID   uint
	BatchID     uint
	CardType    string
	Code        string
	OwnerUserID uint
}

// CardBatchListFilter 批次列表筛选
type CardBatchListFilter struct {
	Page      int
	PageSize  int
	ProductID uint
	BatchNo   string
}

// RewardListFilter 奖励列表筛选
type RewardListFilter struct {
	ProductID  uint
	OnlyActive bool
}
