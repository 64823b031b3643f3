package catalog

// Default returns the production catalog. The identifiers reference stock
// images on the placeholder host and must stay stable once published.
func Default() *Catalog {
	return defaultCatalog
}

var defaultCatalog = MustNew(
	Category{
		Name:    "nature",
		Entries: []Entry{
			{ID: 10, Keywords: []string{"forest", "woods", "trees", "woodland path"}},
			{ID: 15, Keywords: []string{"waterfall", "river", "stream", "flowing water"}},
			{ID: 29, Keywords: []string{"mountain", "mountain range", "peaks", "alpine"}},
			{ID: 28, Keywords: []string{"landscape", "valley", "meadow", "countryside"}},
			{ID: 1015, Keywords: []string{"lake", "river valley", "calm water", "reflection"}},
			{ID: 1016, Keywords: []string{"canyon", "desert", "rock formation", "dunes"}},
			{ID: 1018, Keywords: []string{"sunset", "sunrise", "golden hour", "dusk sky"}},
			{ID: 1043, Keywords: []string{"ocean", "sea", "beach", "waves"}},
		},
	},
	Category{
		Name:    "cityscape",
		Entries: []Entry{
			{ID: 1031, Keywords: []string{"city", "skyline", "skyscrapers", "downtown"}},
			{ID: 1033, Keywords: []string{"street", "alley", "urban street", "sidewalk"}},
			{ID: 1048, Keywords: []string{"architecture", "building", "facade", "modern building"}},
			{ID: 1067, Keywords: []string{"bridge", "harbor", "waterfront"}},
			{ID: 1078, Keywords: []string{"night city", "city lights", "neon streets"}},
		},
	},
	Category{
		Name:    "portrait",
		Entries: []Entry{
			{ID: 64, Keywords: []string{"portrait", "face", "headshot", "close up face"}},
			{ID: 91, Keywords: []string{"man", "gentleman", "male portrait", "beard"}},
			{ID: 338, Keywords: []string{"woman", "lady", "female portrait", "girl"}},
			{ID: 177, Keywords: []string{"people", "crowd", "group of friends", "family"}},
			{ID: 1005, Keywords: []string{"child", "kid", "smiling child", "young boy"}},
		},
	},
	Category{
		Name:    "animals",
		Entries: []Entry{
			{ID: 237, Keywords: []string{"dog", "puppy", "black dog", "canine"}},
			{ID: 40, Keywords: []string{"cat", "kitten", "feline", "tabby cat"}},
			{ID: 1024, Keywords: []string{"bird", "eagle", "vulture", "bird of prey"}},
			{ID: 1074, Keywords: []string{"lion", "big cat", "wild animal", "safari"}},
			{ID: 1084, Keywords: []string{"walrus", "sea animal", "marine wildlife", "seal"}},
			{ID: 582, Keywords: []string{"wolf", "wildlife", "predator", "howling wolf"}},
		},
	},
	Category{
		Name:    "technology",
		Entries: []Entry{
			{ID: 0, Keywords: []string{"laptop", "computer", "workspace", "keyboard"}},
			{ID: 2, Keywords: []string{"coding", "programming", "developer desk", "software"}},
			{ID: 48, Keywords: []string{"robot", "android", "humanoid robot", "artificial intelligence"}},
			{ID: 160, Keywords: []string{"smartphone", "phone", "mobile device", "gadget"}},
			{ID: 180, Keywords: []string{"futuristic", "sci-fi", "cyberpunk", "futuristic technology"}},
			{ID: 201, Keywords: []string{"circuit", "electronics", "microchip", "hardware"}},
		},
	},
	Category{
		Name:    "food",
		Entries: []Entry{
			{ID: 292, Keywords: []string{"food", "meal", "dinner plate", "cooking"}},
			{ID: 429, Keywords: []string{"fruit", "berries", "fresh fruit", "strawberries"}},
			{ID: 488, Keywords: []string{"vegetables", "salad", "healthy food", "greens"}},
			{ID: 431, Keywords: []string{"coffee", "espresso", "coffee cup", "cafe"}},
			{ID: 835, Keywords: []string{"dessert", "cake", "pastry", "sweet treat"}},
		},
	},
	Category{
		Name:    "abstract",
		Entries: []Entry{
			{ID: 1069, Keywords: []string{"abstract", "fluid shapes", "swirls", "abstract art"}},
			{ID: 1060, Keywords: []string{"pattern", "geometric", "geometric pattern", "symmetry"}},
			{ID: 1080, Keywords: []string{"colorful", "vibrant colors", "rainbow", "gradient"}},
			{ID: 1025, Keywords: []string{"texture", "minimal", "minimalist", "monochrome"}},
		},
	},
	Category{
		Name:    "art",
		Entries: []Entry{
			{ID: 103, Keywords: []string{"painting", "oil painting", "canvas", "brush strokes"}},
			{ID: 119, Keywords: []string{"drawing", "sketch", "pencil sketch", "illustration"}},
			{ID: 111, Keywords: []string{"artwork", "masterpiece", "gallery", "museum"}},
			{ID: 250, Keywords: []string{"watercolor", "pastel", "impressionist", "fine art"}},
		},
	},
	Category{
		Name:    "space",
		Entries: []Entry{
			{ID: 903, Keywords: []string{"space", "outer space", "galaxy", "nebula"}},
			{ID: 904, Keywords: []string{"stars", "starry night", "night sky", "milky way"}},
			{ID: 967, Keywords: []string{"planet", "moon", "astronaut", "cosmos"}},
		},
	},
	Category{
		Name:    "fantasy",
		Entries: []Entry{
			{ID: 1039, Keywords: []string{"magical", "fairy", "enchanted forest", "mystical"}},
			{ID: 1041, Keywords: []string{"castle", "kingdom", "medieval", "knight"}},
			{ID: 1056, Keywords: []string{"dragon", "mythical creature", "unicorn", "fantasy creature"}},
			{ID: 1070, Keywords: []string{"glowing mushrooms", "mushroom", "dreamlike", "surreal"}},
		},
	},
)
