package state

var (
	podcastCounterKey  = []byte("podcast/counter")
	podcastPrefix      = []byte("podcast/id/")
	creatorIndexPrefix = []byte("podcast/creator/")
	subscriptionPrefix = []byte("podcast/sub/")
	balancePrefix      = []byte("podcast/balance/")
	feePolicyKey       = []byte("podcast/fee-policy")
	accountPrefix      = []byte("account/")
)
