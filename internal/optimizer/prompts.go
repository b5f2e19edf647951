package optimizer

// Oracle instructions. One generation interface serves three roles
// (extraction, drafting, judging); only the instructions differ.

const extractionPrompt = `Analyze this sales call.
Identify the main OBJECTION the customer had.
Identify the REBUTTAL used to solve it.
Also describe, in one short sentence, the APPROACH a good response to that
objection should demonstrate.

Transcript:
---
%s
---

Return JSON: {"objection": str, "rebuttal": str, "approach": str, "quality_score": float}
The quality_score is 0.0-1.0: how clean and reusable this exchange is as a
teaching example. If no clear objection exists, return an empty objection.
Return ONLY the JSON object.`

const outcomePrompt = `Analyze this sales call transcript and determine the outcome.

Transcript:
---
%s
---

Based on the conversation, did the sales agent successfully close the deal or move the prospect forward?
Consider:
- Did the prospect agree to next steps (demo, meeting, purchase)?
- Did the prospect express clear interest or commitment?
- Did the call end positively with action items?

Return JSON: {"outcome": "CLOSED_DEAL" or "LOST_DEAL", "confidence": float, "reason": str}
Return ONLY the JSON object.`

const draftPrompt = `You are a Lead Sales Manager optimizing a script for prospects in the %s industry, %s region.

CURRENT PROMPT:
"%s"

CALL TRANSCRIPT:
"%s"

TASK:
The call outcome was: %s.
Identify ONE specific missing instruction or weakness in the Current Prompt that caused friction.
Rewrite the prompt to include a specific rule to handle this kind of prospect better next time.

CRITICAL: Keep the prompt concise. Only add high-value instructions.

Return ONLY the new full prompt text.`

const simulatePrompt = `%s

Customer says: "%s"

Respond as the sales agent:`

const judgePrompt = `You are evaluating a sales agent's response to a customer objection.

CUSTOMER OBJECTION: "%s"
AGENT RESPONSE: "%s"
EXPECTED APPROACH: "%s"

Evaluate:
1. Does the response address the objection? (yes/no)
2. Is the tone professional and empathetic? (yes/no)
3. Does it align with the expected approach? (yes/no)

Return JSON: {"addresses_objection": bool, "professional_tone": bool, "aligns_with_target": bool, "overall_score": float}
The overall_score should be between 0.0 and 1.0.
Return ONLY the JSON object.`
