package i18n

var tables = map[Lang]map[string]string{
	English: {
		"title":             "Qubic Income Calculator",
		"hashrate":          "Your Hashrate (it/s)",
		"solsCount":         "Your Solutions Count",
		"calculate":         "Calculate",
		"epochInfo":         "Current Epoch Information",
		"currentEpoch":      "Current Epoch",
		"epochStart":        "Epoch Start (UTC+8)",
		"epochEnd":          "Epoch End (UTC+8)",
		"epochProgress":     "Epoch Progress",
		"epochRemaining":    "Time Remaining",
		"networkInfo":       "Network Information",
		"estimatedHashrate": "Estimated Network Hashrate",
		"averageScore":      "Average Score",
		"solutionsPerHour":  "Solutions per Hour",
		"difficulty":        "Difficulty",
		"createdAt":         "Created At",
		"incomeEstimate":    "Income Estimate (85% Pool)",
		"qubicPrice":        "Qubic Price",
		"dailyIncome":       "Estimated Daily Income (Hashrate)",
		"dailyIncomeBySols": "Estimated Solutions Income",
		"solIncome":         "Estimated Income per Solution",
		"dailySolutions":    "Estimated Daily Solutions",
		"luckiness":         "Luckiness (Actual/Expected)",
		"methodAverage":     "By Network Average Score",
		"methodTotal":       "By Total Score / 676",
		"loading":           "Loading...",
		"error":             "An error occurred. Please try again.",
		"pressCalculate":    "Press Calculate to see income estimates",
		"calculator":        "Calculator",
		"graph":             "Graph",
		"donate":            "Donate",
		"donateInfo":        "If you'd like to donate, here are my addresses:",
		"qubicAddress":      "Qubic Address",
		"erc20Address":      "ERC-20 Address",
	},
	Chinese: {
		"title":             "Qubic 收益计算器",
		"hashrate":          "您的算力 (it/s)",
		"solsCount":         "您的解决方案数量",
		"calculate":         "计算",
		"epochInfo":         "目前纪元信息",
		"currentEpoch":      "目前纪元",
		"epochStart":        "纪元开始 (UTC+8)",
		"epochEnd":          "纪元结束 (UTC+8)",
		"epochProgress":     "纪元进度",
		"epochRemaining":    "剩余时间",
		"networkInfo":       "网络信息",
		"estimatedHashrate": "估计网络算力",
		"averageScore":      "平均分数",
		"solutionsPerHour":  "每小时解决方案数",
		"difficulty":        "难度",
		"createdAt":         "创建时间",
		"incomeEstimate":    "收益估算 (85% 收益池)",
		"qubicPrice":        "Qubic 价格",
		"dailyIncome":       "预计每日收入 (算力)",
		"dailyIncomeBySols": "预计 Sol 收入",
		"solIncome":         "每个解决方案的预计收入",
		"dailySolutions":    "预计每日解决方案数",
		"luckiness":         "幸运度 (实际/预期)",
		"methodAverage":     "按网络平均分数",
		"methodTotal":       "按总分数 / 676",
		"loading":           "加载中...",
		"error":             "发生错误。请重试。",
		"pressCalculate":    "点击计算查看收益估算",
		"calculator":        "计算器",
		"graph":             "图表",
		"donate":            "捐赠",
		"donateInfo":        "如果您想捐赠，这里是我的地址：",
		"qubicAddress":      "Qubic 地址",
		"erc20Address":      "ERC-20 地址",
	},
}
