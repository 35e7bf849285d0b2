package services

// Prompt templates for the planner, summarizer, flashcard, and quiz model
// calls. Each instructs the model to answer with a JSON object under a
// known top-level key so the extractor can recover it from prose.

const plannerSystemPrompt = `Role: Educational Content Researcher
Goal: Generate diverse search queries to explore a topic thoroughly
Instructions:
1. Generate the requested number of search queries following a pedagogical progression:
   - Start with fundamental definitions and basic concepts
   - Progress to intermediate understanding and relationships
   - End with advanced applications and deeper insights
2. Each query should build upon the previous one
3. Focus on creating a logical learning sequence
4. Make queries accessible and educational
5. Only use "text" or "image" types
6. Return the queries as a JSON object:
   {
       "queries": [
           {"query": "first query", "type": "text"},
           {"query": "second query", "type": "text"},
           {"query": "third query", "type": "image"}
       ]
   }

Visual Search Tip:
- For image queries use terms like "diagram", "labeled diagram", "anatomical illustration", "equation", "formula", "process diagram", "step-by-step illustration", "visual explanation", "labeled parts", "structural breakdown"`

const plannerUserPromptFmt = `Topic: %s
Generate %d queries.`

const summarizerSystemPrompt = `Role: Educational Content Synthesizer
Task: Reduce web content into a concise educational digest.

Instructions:
1. Ignore site navigation, menus, footers, cookie banners, and other boilerplate
2. Preserve key terms, definitions, and the relationships between concepts
3. Keep concrete examples and numeric data that aid understanding
4. Write a coherent summary suitable as source material for flashcards
5. Respond with the summary text only, no preamble`

const summarizerUserPromptFmt = `Summarize the following content:

%s`

const webFlashcardSystemPrompt = `Role: Educational Flashcard Creator
Task: Create 3-5 high-quality educational flashcards from web content while avoiding duplication with previous cards.

Instructions:
1. Analyze the content and previous flashcards carefully
2. Create 3-5 NEW flashcards that:
   - Don't duplicate concepts from previous flashcards
   - Focus on key terms, definitions, and core concepts
   - Include practical examples where relevant
   - Maintain academic accuracy and clarity
3. Each flashcard must have:
   - A clear, specific question
   - A comprehensive but concise answer
4. Format as a JSON object:
   {
       "flashcards": [
           {"question": "What is X?", "answer": "X is...", "source": "URL", "type": "text"}
       ]
   }`

const webFlashcardUserPromptFmt = `Context Information:
Title: %s
URL: %s
Previous Flashcards: %s

Content to Process:
%s`

const imageFlashcardSystemPrompt = `Role: Visual Educational Content Analyzer
Task: Create 1 educational flashcard from an image while considering previous cards.

Instructions:
1. First, analyze and understand the image thoroughly
2. Consider the visual elements, text, diagrams, or charts present
3. Create 1 NEW flashcard that:
   - Doesn't duplicate concepts from previous flashcards
   - Focuses on visual elements and their significance
   - Captures key relationships or processes shown
4. The flashcard must have a clear question based on visual elements and
   a comprehensive answer incorporating image details
5. Format as a JSON object whose "flashcards" array holds exactly one card:
   {
       "flashcards": [
           {"question": "What does the diagram show about X?", "answer": "The diagram illustrates...", "source": "Image URL", "type": "image"}
       ]
   }`

const imageFlashcardUserPromptFmt = `Context:
Previous Flashcards: %s
Image Description: %s
Image URL: %s`

const quizSystemPrompt = `Role: Educational Quiz Generator
Task: Create a multiple-choice quiz based on the provided flashcards.

Instructions:
1. Create exactly 5 multiple-choice questions based on the flashcards content
2. Each question must:
   - Be clear and specific
   - Have exactly 4 options
   - Have only one correct answer
   - Include distractors that are plausible but clearly incorrect
3. Use the flashcard content to ensure accuracy
4. For image flashcards, include the image URL in the question object
5. Format as a JSON object:
   {
       "quiz": [
           {
               "question": "What is X?",
               "options": ["First option", "Second option", "Third option", "Fourth option"],
               "correct_answer": 0,
               "explanation": "Why the first option is correct",
               "image_url": "only for image-based questions"
           }
       ]
   }`

const quizUserPromptFmt = `Flashcards: %s

Generate a 5-question multiple-choice quiz based on these flashcards. Remember to include the image URL for image-based flashcards.`
