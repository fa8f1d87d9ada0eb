package content

import "edubot/internal/domain"

// Static informational content compiled into the binary. Education topics,
// polls, the career test and daily facts change with releases, not at
// runtime, unlike quizzes and quests which live in the store.

var educationTopics = []domain.EducationTopic{
	{
		Key:   "professions",
		Icon:  "👷",
		Title: "Construction professions",
		Sections: []domain.EducationSection{
			{
				Key:   "engineer",
				Title: "Civil engineer",
				Text: "Civil engineer\n\n" +
					"Civil engineers design and supervise the structures everyone relies on: buildings, bridges, roads and water systems. " +
					"The job mixes mathematics, materials science and a lot of communication with the crews on site.\n\n" +
					"A typical day: checking drawings against codes, resolving clashes between disciplines, and walking the site to confirm the built work matches the design.",
			},
			{
				Key:   "architect",
				Title: "Architect",
				Text: "Architect\n\n" +
					"Architects shape how a building looks, feels and works. They balance the client's wishes, the budget, the site and the building regulations into one coherent design.\n\n" +
					"Modern architects spend as much time in 3D modelling tools as at the drawing board, and they follow their buildings from the first sketch to the opening day.",
			},
			{
				Key:   "foreman",
				Title: "Site foreman",
				Text: "Site foreman\n\n" +
					"The foreman runs the site day to day: assigning crews, ordering materials, watching safety and keeping the schedule honest. " +
					"When something unexpected turns up in the ground or in the drawings, the foreman is the first to deal with it.",
			},
		},
	},
	{
		Key:   "materials",
		Icon:  "🧱",
		Title: "Materials and technology",
		Sections: []domain.EducationSection{
			{
				Key:   "concrete",
				Title: "Concrete",
				Text: "Concrete\n\n" +
					"Concrete is the most used man-made material on Earth. It is a simple mix of cement, water, sand and gravel, yet its chemistry is still being researched today.\n\n" +
					"Concrete does not dry, it cures: the cement reacts with water and keeps gaining strength for weeks. That is why fresh concrete is kept wet, not dried out.",
			},
			{
				Key:   "steel",
				Title: "Steel and reinforcement",
				Text: "Steel and reinforcement\n\n" +
					"Concrete is strong in compression but weak in tension, so builders cast steel bars inside it. The two materials expand almost identically with heat, which is why reinforced concrete works at all.\n\n" +
					"Structural steel frames go up fast: a crew can erect several floors of columns and beams in a week.",
			},
			{
				Key:   "modern",
				Title: "Modern technology",
				Text: "Modern technology\n\n" +
					"Today's sites use laser scanning, drones for surveying, and 3D-printed concrete elements. Building information modelling (BIM) lets every discipline work on one shared digital model and catch collisions before anything is built.",
			},
		},
	},
	{
		Key:   "safety",
		Icon:  "🦺",
		Title: "Safety on site",
		Sections: []domain.EducationSection{
			{
				Key:   "ppe",
				Title: "Personal protection",
				Text: "Personal protection\n\n" +
					"Hard hat, high-visibility vest, safety boots and gloves are the minimum on any site. Each item answers a specific, common accident: falling objects, moving machinery, dropped loads and sharp materials.",
			},
			{
				Key:   "rules",
				Title: "Golden rules",
				Text: "Golden rules\n\n" +
					"Never walk under a suspended load. Never remove a guard rail without a permit. Always report a near miss: the accident you prevent is the one that was about to happen to someone else.",
			},
		},
	},
}

var polls = []domain.Poll{
	{
		ID:       "dream_project",
		Question: "What would you most like to build?",
		Options:  []string{"A skyscraper", "A bridge", "A stadium", "My own house"},
	},
	{
		ID:       "best_part",
		Question: "What is the most interesting part of construction?",
		Options:  []string{"Design and drawings", "Heavy machinery", "Teamwork on site", "Seeing the result"},
	},
	{
		ID:        "future_tech",
		Question:  "Which technology will change construction the most?",
		Options:   []string{"3D printing", "Robotics", "Smart materials", "AI planning"},
		Anonymous: true,
	},
}

var careerQuestions = []domain.CareerQuestion{
	{
		Text: "What do you enjoy doing most?",
		Answers: []domain.CareerAnswer{
			{Text: "Drawing and inventing", Tags: []string{"architect"}},
			{Text: "Solving puzzles and calculations", Tags: []string{"engineer"}},
			{Text: "Organizing people", Tags: []string{"manager"}},
			{Text: "Working with my hands", Tags: []string{"craftsman"}},
		},
	},
	{
		Text: "A team project is falling behind. What do you do?",
		Answers: []domain.CareerAnswer{
			{Text: "Redesign the plan to be realistic", Tags: []string{"engineer", "architect"}},
			{Text: "Rally the team and redistribute tasks", Tags: []string{"manager"}},
			{Text: "Roll up my sleeves and do the hardest part", Tags: []string{"craftsman"}},
			{Text: "Find where the process is broken", Tags: []string{"engineer", "manager"}},
		},
	},
	{
		Text: "Which school subject do you like best?",
		Answers: []domain.CareerAnswer{
			{Text: "Art", Tags: []string{"architect"}},
			{Text: "Mathematics and physics", Tags: []string{"engineer"}},
			{Text: "Social studies", Tags: []string{"manager"}},
			{Text: "Crafts and technology", Tags: []string{"craftsman"}},
		},
	},
	{
		Text: "What kind of result makes you proudest?",
		Answers: []domain.CareerAnswer{
			{Text: "Something beautiful that people admire", Tags: []string{"architect"}},
			{Text: "Something precise that works flawlessly", Tags: []string{"engineer"}},
			{Text: "A team that achieved the impossible", Tags: []string{"manager"}},
			{Text: "Something solid I built myself", Tags: []string{"craftsman"}},
		},
	},
	{
		Text: "Where would you rather spend your working day?",
		Answers: []domain.CareerAnswer{
			{Text: "In a studio with sketches and models", Tags: []string{"architect"}},
			{Text: "At a desk with drawings and numbers", Tags: []string{"engineer"}},
			{Text: "In meetings and on calls", Tags: []string{"manager"}},
			{Text: "Outside, on the site", Tags: []string{"craftsman"}},
		},
	},
}

var careerProfiles = map[string]domain.CareerProfile{
	"architect": {
		Tag:   "architect",
		Title: "Architect",
		Description: "You see space and form where others see walls. Architects turn ideas into buildings people love, " +
			"combining art with engineering. Start with drawing, geometry and 3D modelling.",
	},
	"engineer": {
		Tag:   "engineer",
		Title: "Civil engineer",
		Description: "You like to understand exactly why things stand up. Civil engineers make designs safe, buildable " +
			"and affordable. Mathematics and physics are your best friends on this road.",
	},
	"manager": {
		Tag:   "manager",
		Title: "Construction manager",
		Description: "You get things done through people. Construction managers run budgets, schedules and crews so the " +
			"right material meets the right specialist at the right moment.",
	},
	"craftsman": {
		Tag:   "craftsman",
		Title: "Master craftsman",
		Description: "You trust your hands and your eye. Skilled trades — masons, carpenters, welders, electricians — " +
			"are the backbone of every site, and masters of a trade are always in demand.",
	},
}

var dailyFacts = []string{
	"The Great Wall of China used sticky rice flour in its mortar, which is one reason it held together for centuries.",
	"Concrete keeps gaining strength for decades. Some dams are measurably stronger today than the day they were poured.",
	"The Burj Khalifa's foundations reach about 50 metres below ground and contain over 100,000 tonnes of concrete.",
	"Ancient Roman concrete used volcanic ash, and some Roman harbours still stand after 2,000 years in seawater.",
	"Tower cranes climb the buildings they construct: the crane jacks itself up as new floors are completed.",
	"The Eiffel Tower grows up to 15 centimetres taller in summer as its iron expands in the heat.",
	"A modern excavator can do the work of about 20 people with shovels, yet sites employ more people than ever.",
	"Skyscrapers are designed to sway. The top of a tall tower can move over a metre in strong wind, by design.",
	"3D printers have built single-storey houses in under 24 hours of printing time.",
	"More than half of the world's population lives in buildings made primarily of concrete.",
}

// DefaultQuizzes seeds the store on first run so the service has something
// to play before an admin adds content.
func DefaultQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			Title:       "Construction basics",
			Description: "A quick check of the fundamentals",
			Questions: []domain.Question{
				{
					Text:        "What gives reinforced concrete its tensile strength?",
					Options:     []string{"Cement", "Steel bars", "Gravel", "Water"},
					Correct:     1,
					Explanation: "Concrete handles compression; the steel reinforcement carries tension.",
				},
				{
					Text:        "What must always be worn on a construction site?",
					Options:     []string{"A tie", "A hard hat", "Sunglasses", "Headphones"},
					Correct:     1,
					Explanation: "Falling objects are the most common site hazard, so the hard hat is non-negotiable.",
				},
				{
					Text:        "What does concrete need to cure properly?",
					Options:     []string{"Hot dry air", "Moisture", "Darkness", "Vibration"},
					Correct:     1,
					Explanation: "Curing is a chemical reaction with water, so fresh concrete is kept wet.",
				},
				{
					Text:        "Who runs the construction site day to day?",
					Options:     []string{"The architect", "The client", "The site foreman", "The surveyor"},
					Correct:     2,
					Explanation: "The foreman assigns crews, orders materials and keeps the schedule honest.",
				},
			},
		},
		{
			Title:       "Famous structures",
			Description: "Do you know the world's landmark builds?",
			Questions: []domain.Question{
				{
					Text:    "Which is currently the tallest building in the world?",
					Options: []string{"Shanghai Tower", "Burj Khalifa", "Empire State Building", "Merdeka 118"},
					Correct: 1,
				},
				{
					Text:        "What unusual ingredient strengthened the Great Wall's mortar?",
					Options:     []string{"Egg whites", "Sticky rice", "Honey", "Clay"},
					Correct:     1,
					Explanation: "Sticky rice flour made the lime mortar far more durable.",
				},
				{
					Text:    "Which ancient people built harbours that survive in seawater to this day?",
					Options: []string{"The Egyptians", "The Greeks", "The Romans", "The Phoenicians"},
					Correct: 2,
				},
			},
		},
	}
}

// DefaultQuests seeds the store on first run.
func DefaultQuests() []domain.Quest {
	return []domain.Quest{
		{
			Title:        "A day on the site",
			Description:  "Walk through one working day and prove you belong on a site",
			RewardPoints: 15,
			Steps: []domain.QuestStep{
				{
					Text:   "You arrive at the site gate. Before you may enter, name the protective item that guards your head. Type the answer.",
					Answer: "hard hat",
					Hint:   "It is the first thing you put on and the last thing you take off.",
				},
				{
					Text:   "The foreman asks you to fetch the material made of cement, water, sand and gravel. What is it called?",
					Answer: "concrete",
					Hint:   "It is poured, not laid.",
				},
				{
					Text:   "A crane lifts a load over the walkway. One word describes what you must never do: walk ___ the load. Which word?",
					Answer: "under",
					Hint:   "Think about where the load would land.",
				},
			},
		},
	}
}
