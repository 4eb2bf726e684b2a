package advice

import "cropintel/internal/pricing"

// buckets holds one advice string per volatility level.
type buckets struct {
	High   string
	Medium string
	Low    string
}

type trendTemplates map[pricing.Trend]buckets

// templates is the language → trend → volatility-bucket tree. Missing
// languages or entries fall back to English at lookup time.
var templates = map[string]trendTemplates{
	pricing.LangEnglish: {
		pricing.TrendRising: {
			High:   "⚠️ High volatility: {crop} prices rising rapidly, now around {price}. Consider selling soon as prices may swing back.",
			Medium: "📈 {crop} prices rising, now around {price}. Good time to sell if you have stock.",
			Low:    "📈 {crop} prices gradually increasing, now around {price}. Consider selling when prices peak.",
		},
		pricing.TrendFalling: {
			High:   "⚠️ High volatility: {crop} prices dropping sharply, now around {price}. Consider holding if possible.",
			Medium: "📉 {crop} prices decreasing, now around {price}. Consider waiting for better prices if storage is an option.",
			Low:    "📉 {crop} prices slowly declining, now around {price}. May be a good time to buy if you need supply.",
		},
		pricing.TrendStable: {
			High:   "⚡ {crop} prices stable around {price} but with high volatility. Be cautious with large transactions.",
			Medium: "➡️ {crop} prices stable around {price}. No immediate action needed.",
			Low:    "✅ {crop} prices stable around {price} with low volatility. Good conditions for planning.",
		},
	},
	pricing.LangSwahili: {
		pricing.TrendRising: {
			High:   "⚠️ Mabadiliko makubwa: Bei ya {crop} inapanda kwa kasi, sasa ni karibu {price}. Fikiria kuuza hivi karibuni.",
			Medium: "📈 Bei ya {crop} inapanda, sasa ni karibu {price}. Wakati mzuri wa kuuza kama una bidhaa.",
			Low:    "📈 Bei ya {crop} inapanda polepole, sasa ni karibu {price}. Fikiria kuuza itakapofikia kilele.",
		},
		pricing.TrendFalling: {
			High:   "⚠️ Mabadiliko makubwa: Bei ya {crop} inashuka kwa kasi, sasa ni karibu {price}. Fikiria kusubiri kama unaweza.",
			Medium: "📉 Bei ya {crop} inashuka, sasa ni karibu {price}. Subiri bei nzuri kama una ghala.",
			Low:    "📉 Bei ya {crop} inashuka polepole, sasa ni karibu {price}. Wakati mzuri wa kununua kama unahitaji.",
		},
		pricing.TrendStable: {
			High:   "⚡ Bei ya {crop} iko imara karibu {price} lakini na mabadiliko makubwa. Kuwa makini na miamala mikubwa.",
			Medium: "➡️ Bei ya {crop} iko imara karibu {price}. Hakuna hatua ya haraka inayohitajika.",
			Low:    "✅ Bei ya {crop} iko imara karibu {price} na mabadiliko madogo. Hali nzuri ya kupanga.",
		},
	},
	pricing.LangYoruba: {
		pricing.TrendRising: {
			High:   "⚠️ Ìyípadà ńlá: Owó {crop} ń gòkè kíákíá, ó tó {price} báyìí. Ronú láti tà láìpẹ́.",
			Medium: "📈 Owó {crop} ń gòkè, ó tó {price} báyìí. Àkókò dáradára láti tà bí o bá ní ọjà.",
			Low:    "📈 Owó {crop} ń gòkè díẹ̀díẹ̀, ó tó {price} báyìí. Ronú láti tà nígbà tí ó bá ga jùlọ.",
		},
		pricing.TrendFalling: {
			High:   "⚠️ Ìyípadà ńlá: Owó {crop} ń jábọ́ kíákíá, ó tó {price} báyìí. Dúró bí o bá lè ṣe é.",
			Medium: "📉 Owó {crop} ń dínkù, ó tó {price} báyìí. Dúró fún owó tí ó dára bí o bá ní ibi ìpamọ́.",
			Low:    "📉 Owó {crop} ń dínkù díẹ̀díẹ̀, ó tó {price} báyìí. Àkókò dáradára láti rà bí o bá nílò ọjà.",
		},
		pricing.TrendStable: {
			High:   "⚡ Owó {crop} dúró ṣinṣin ní {price} ṣùgbọ́n pẹ̀lú ìyípadà ńlá. Ṣọ́ra pẹ̀lú òwò ńlá.",
			Medium: "➡️ Owó {crop} dúró ṣinṣin ní {price}. Kò sí ìgbésẹ̀ kíákíá tí a nílò.",
			Low:    "✅ Owó {crop} dúró ṣinṣin ní {price} pẹ̀lú ìyípadà kékeré. Ipò dáradára fún ìgbèrò.",
		},
	},
	pricing.LangFrench: {
		pricing.TrendRising: {
			High:   "⚠️ Forte volatilité : le prix du {crop} monte rapidement, environ {price} actuellement. Envisagez de vendre bientôt.",
			Medium: "📈 Le prix du {crop} augmente, environ {price} actuellement. Bon moment pour vendre si vous avez du stock.",
			Low:    "📈 Le prix du {crop} augmente progressivement, environ {price}. Envisagez de vendre au plus haut.",
		},
		pricing.TrendFalling: {
			High:   "⚠️ Forte volatilité : le prix du {crop} chute fortement, environ {price} actuellement. Attendez si possible.",
			Medium: "📉 Le prix du {crop} baisse, environ {price} actuellement. Attendez de meilleurs prix si vous pouvez stocker.",
			Low:    "📉 Le prix du {crop} baisse lentement, environ {price}. Bon moment pour acheter si vous avez besoin de stock.",
		},
		pricing.TrendStable: {
			High:   "⚡ Prix du {crop} stable autour de {price} mais très volatil. Prudence sur les grosses transactions.",
			Medium: "➡️ Prix du {crop} stable autour de {price}. Aucune action immédiate nécessaire.",
			Low:    "✅ Prix du {crop} stable autour de {price} avec une faible volatilité. Bonnes conditions pour planifier.",
		},
	},
}
